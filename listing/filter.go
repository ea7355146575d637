package listing

import (
	"strconv"
	"time"

	"github.com/purple-archive/archiveclient/api"
)

// Filter describes the album list constraints. Empty strings and nil
// pointers mean "no constraint"; empty text fields are normalized away
// before reaching the query or durable storage.
type Filter struct {
	PartialDescription string
	PartialPlayerName  string
	PlayedFrom         *time.Time
	PlayedUntil        *time.Time
	GamemodeID         *int64
	PartialTag         string
	MyBookmark         bool
}

// ActiveCount reports how many constraints the filter carries, for display.
func (f Filter) ActiveCount() int {
	n := 0
	if f.PartialDescription != "" {
		n++
	}
	if f.PartialPlayerName != "" {
		n++
	}
	if f.PlayedFrom != nil || f.PlayedUntil != nil {
		n++
	}
	if f.GamemodeID != nil {
		n++
	}
	if f.PartialTag != "" {
		n++
	}
	if f.MyBookmark {
		n++
	}
	return n
}

// params translates the filter into query parameters, dropping empty fields.
func (f Filter) params() api.GetAlbumsParams {
	p := api.GetAlbumsParams{}
	if f.PartialDescription != "" {
		v := f.PartialDescription
		p.PartialDescription = &v
	}
	if f.PartialPlayerName != "" {
		v := f.PartialPlayerName
		p.PartialPlayerName = &v
	}
	if f.PlayedFrom != nil {
		v := f.PlayedFrom.Unix()
		p.PlayedFrom = &v
	}
	if f.PlayedUntil != nil {
		v := f.PlayedUntil.Unix()
		p.PlayedUntil = &v
	}
	if f.GamemodeID != nil {
		v := *f.GamemodeID
		p.GamemodeID = &v
	}
	if f.PartialTag != "" {
		v := f.PartialTag
		p.PartialTag = &v
	}
	if f.MyBookmark {
		v := true
		p.MyBookmark = &v
	}
	return p
}

// persistedValues maps every filter field to its storage key. Cleared fields
// map to "" deliberately: a cleared filter must overwrite stale persisted
// values.
func (f Filter) persistedValues() map[string]string {
	values := map[string]string{
		keyFilterPartialDescription: f.PartialDescription,
		keyFilterPartialPlayerName:  f.PartialPlayerName,
		keyFilterPlayedFrom:         "",
		keyFilterPlayedUntil:        "",
		keyFilterGamemodeID:         "",
		keyFilterPartialTag:         f.PartialTag,
		keyFilterMyBookmark:         "",
	}
	if f.PlayedFrom != nil {
		values[keyFilterPlayedFrom] = strconv.FormatInt(f.PlayedFrom.Unix(), 10)
	}
	if f.PlayedUntil != nil {
		values[keyFilterPlayedUntil] = strconv.FormatInt(f.PlayedUntil.Unix(), 10)
	}
	if f.GamemodeID != nil {
		values[keyFilterGamemodeID] = strconv.FormatInt(*f.GamemodeID, 10)
	}
	if f.MyBookmark {
		values[keyFilterMyBookmark] = "true"
	}
	return values
}

// restoreField applies one persisted value onto the filter. Absent or empty
// values are skipped by the caller, so value is always non-empty here.
func (f *Filter) restoreField(key, value string) {
	switch key {
	case keyFilterPartialDescription:
		f.PartialDescription = value
	case keyFilterPartialPlayerName:
		f.PartialPlayerName = value
	case keyFilterPlayedFrom:
		if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
			t := time.Unix(secs, 0)
			f.PlayedFrom = &t
		}
	case keyFilterPlayedUntil:
		if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
			t := time.Unix(secs, 0)
			f.PlayedUntil = &t
		}
	case keyFilterGamemodeID:
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			f.GamemodeID = &id
		}
	case keyFilterPartialTag:
		f.PartialTag = value
	case keyFilterMyBookmark:
		f.MyBookmark = value == "true"
	}
}
