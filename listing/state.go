// Package listing holds the authoritative album list query (filter, sort
// mode and page), keeps it synchronized with durable storage, and drives
// refetching whenever any of the three changes.
package listing

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/purple-archive/archiveclient/api"
)

// Persisted storage keys for the list view's query state.
const (
	keyFilterPartialDescription = "albumsFilterPD"
	keyFilterPartialPlayerName  = "albumsFilterPP"
	keyFilterPlayedFrom         = "albumsFilterPF"
	keyFilterPlayedUntil        = "albumsFilterPU"
	keyFilterGamemodeID         = "albumsFilterGI"
	keyFilterPartialTag         = "albumsFilterPT"
	keyFilterMyBookmark         = "albumsFilterMB"
	keySortOrder                = "albumsSortOrder"
	keyPage                     = "albumsPage"
)

var filterKeys = []string{
	keyFilterPartialDescription,
	keyFilterPartialPlayerName,
	keyFilterPlayedFrom,
	keyFilterPlayedUntil,
	keyFilterGamemodeID,
	keyFilterPartialTag,
	keyFilterMyBookmark,
}

// Storage is the durable key/value surface the state machine persists to.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// AlbumLister issues the list query. Satisfied by *api.Client.
type AlbumLister interface {
	GetAlbums(ctx context.Context, params api.GetAlbumsParams) (*api.GetAlbumsResponse, error)
}

// Snapshot is a read-only copy of the list view's current contents.
type Snapshot struct {
	Albums     []api.AlbumOutline
	TotalCount int64
	Page       int
	PageCount  int
	Loading    bool
	Err        error
}

// State is the filter/sort/pagination state machine. All mutators persist
// their change and trigger exactly one refetch. Responses are fenced by a
// monotonically increasing sequence number so a slow, stale response can
// never overwrite the result of a newer query.
type State struct {
	mu sync.Mutex

	ctx     context.Context
	store   Storage
	lister  AlbumLister
	perPage int

	filter        Filter
	sortModeIndex int
	page          int
	mounted       bool

	albums     []api.AlbumOutline
	totalCount int64
	loading    bool
	lastErr    error

	seq      uint64
	inflight sync.WaitGroup

	// onResult runs after every applied fetch, outside the state lock.
	onResult func(Snapshot)
}

func NewState(ctx context.Context, store Storage, lister AlbumLister, perPage int) *State {
	return &State{
		ctx:           ctx,
		store:         store,
		lister:        lister,
		perPage:       perPage,
		sortModeIndex: DefaultSortModeIndex,
	}
}

// SetResultHook installs a callback invoked after each completed fetch.
func (s *State) SetResultHook(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = fn
}

// Initialize restores persisted query state and mounts the view, triggering
// the initial fetch. It runs at most once; later calls are no-ops.
func (s *State) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted {
		return nil
	}

	for _, key := range filterKeys {
		value, ok, err := s.store.Get(key)
		if err != nil {
			return fmt.Errorf("failed to restore filter state: %w", err)
		}
		if !ok || value == "" {
			continue
		}
		s.filter.restoreField(key, value)
	}

	if value, ok, err := s.store.Get(keySortOrder); err != nil {
		return fmt.Errorf("failed to restore sort state: %w", err)
	} else if ok && value != "" {
		if i, err := strconv.Atoi(value); err == nil && IsValidSortModeIndex(i) {
			s.sortModeIndex = i
		}
	}

	if value, ok, err := s.store.Get(keyPage); err != nil {
		return fmt.Errorf("failed to restore page state: %w", err)
	} else if ok && value != "" {
		if p, err := strconv.Atoi(value); err == nil && p >= 0 {
			s.page = p
		}
	}

	// mounting is the final step; it arms fetch triggering
	s.mounted = true
	s.trigger()
	return nil
}

// UpdateFilter replaces the filter wholesale and resets the page to 0.
// Every field is persisted, including explicit clears, so a cleared filter
// overwrites stale persisted values.
func (s *State) UpdateFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = f
	s.page = 0
	for key, value := range f.persistedValues() {
		s.persist(key, value)
	}
	s.persist(keyPage, "0")
	s.trigger()
}

// UpdateSort selects a sort mode by index and resets the page to 0: any
// query-shape change restarts pagination.
func (s *State) UpdateSort(index int) error {
	if !IsValidSortModeIndex(index) {
		return fmt.Errorf("sort mode index %d out of range", index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortModeIndex = index
	s.page = 0
	s.persist(keySortOrder, strconv.Itoa(index))
	s.persist(keyPage, "0")
	s.trigger()
	return nil
}

// SetPage moves to the given zero-based page.
func (s *State) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.page = page
	s.persist(keyPage, strconv.Itoa(page))
	s.trigger()
}

// Refresh re-issues the current query, e.g. after an upload commits.
func (s *State) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger()
}

// Wait blocks until no fetch is in flight. Meant for the command loop and
// tests, which mutate and then read the snapshot.
func (s *State) Wait() {
	s.inflight.Wait()
}

// Snapshot returns a copy of the current list contents.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Filter returns the current filter.
func (s *State) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SortModeIndex returns the current sort mode index.
func (s *State) SortModeIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortModeIndex
}

// Page returns the current zero-based page.
func (s *State) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// ApplyBookmark adjusts the local copy of one outline after an optimistic
// bookmark toggle.
func (s *State) ApplyBookmark(albumID int64, bookmarked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.albums {
		if s.albums[i].ID != albumID {
			continue
		}
		if s.albums[i].IsBookmarked == bookmarked {
			return
		}
		s.albums[i].IsBookmarked = bookmarked
		if bookmarked {
			s.albums[i].BookmarkCount++
		} else {
			s.albums[i].BookmarkCount--
		}
		return
	}
}

// ApplyDownload bumps the local download counter of one outline.
func (s *State) ApplyDownload(albumID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.albums {
		if s.albums[i].ID == albumID {
			s.albums[i].DownloadCount++
			return
		}
	}
}

func (s *State) snapshotLocked() Snapshot {
	albums := make([]api.AlbumOutline, len(s.albums))
	copy(albums, s.albums)
	return Snapshot{
		Albums:     albums,
		TotalCount: s.totalCount,
		Page:       s.page,
		PageCount:  s.pageCountLocked(),
		Loading:    s.loading,
		Err:        s.lastErr,
	}
}

func (s *State) pageCountLocked() int {
	if s.totalCount <= 0 {
		return 0
	}
	return int((s.totalCount + int64(s.perPage) - 1) / int64(s.perPage))
}

// persist writes one key, logging rather than failing the mutation: durable
// state is a convenience, the in-memory query stays authoritative.
func (s *State) persist(key, value string) {
	if err := s.store.Set(key, value); err != nil {
		log.Printf("failed to persist %s: %v", key, err)
	}
}

// trigger issues one list query for the current state. Callers hold mu.
// Triggering before mount is a no-op; mounting itself triggers the first
// fetch.
func (s *State) trigger() {
	if !s.mounted {
		return
	}
	s.seq++
	seq := s.seq
	s.loading = true

	params := s.filter.params()
	offset := s.page * s.perPage
	limit := s.perPage
	mode := SortModes[s.sortModeIndex]
	orderBy, order := mode.OrderBy, mode.Order
	params.Offset = &offset
	params.Limit = &limit
	params.OrderBy = &orderBy
	params.Order = &order

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		// a concurrent 401 can tear the session down between the gate at
		// the call site and this request; the auth-header panic then lands
		// here and must not take the process with it
		defer func() {
			if r := recover(); r != nil {
				s.apply(seq, nil, fmt.Errorf("album list fetch aborted: %v", r))
			}
		}()
		resp, err := s.lister.GetAlbums(s.ctx, params)
		s.apply(seq, resp, err)
	}()
}

// apply installs a fetch result, unless a newer request has been issued
// since; stale responses are discarded outright.
func (s *State) apply(seq uint64, resp *api.GetAlbumsResponse, err error) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}

	s.loading = false
	if err != nil {
		// a 401 has already forced logout through the client hook; every
		// other failure leaves an empty list and waits for the user to
		// re-trigger
		log.Printf("album list fetch failed: %v", err)
		s.albums = nil
		s.totalCount = 0
		s.lastErr = err
	} else {
		s.albums = resp.Albums
		s.totalCount = resp.AlbumsCountAll
		s.lastErr = nil

		// the count may have shrunk under us; the out-of-range response
		// holds no rows, so clamp and fetch the clamped page. The follow-up
		// lands in range and cannot clamp again.
		maxPage := s.pageCountLocked() - 1
		if maxPage < 0 {
			maxPage = 0
		}
		if s.page > maxPage {
			s.page = maxPage
			s.persist(keyPage, strconv.Itoa(maxPage))
			s.trigger()
		}
	}

	snap := s.snapshotLocked()
	hook := s.onResult
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
}
