// Package upload implements the two-phase album upload workflow: stage the
// file in temporary server storage, then commit it with its metadata.
package upload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/purple-archive/archiveclient/api"
	"github.com/purple-archive/archiveclient/database"
	"github.com/purple-archive/archiveclient/media"
)

// Phase is the wizard's current step.
type Phase int

const (
	PhaseSelectFile Phase = iota
	PhaseStaged
	PhaseConfirmDuplicate
	PhaseMetadataEntry
	PhaseCommitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectFile:
		return "select file"
	case PhaseStaged:
		return "staged"
	case PhaseConfirmDuplicate:
		return "confirm duplicate"
	case PhaseMetadataEntry:
		return "metadata entry"
	case PhaseCommitting:
		return "committing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// File selection rejections, each with its own user-facing reason.
var (
	ErrFileRead       = errors.New("failed to read the album file")
	ErrNotGIF         = errors.New("only GIF files are accepted")
	ErrBadCaptureName = errors.New("file name does not embed a valid capture date and time")
)

// ErrWrongPhase is returned when an operation does not apply to the wizard's
// current phase.
var ErrWrongPhase = errors.New("operation not valid in current wizard phase")

// Uploader is the API surface the wizard needs. Satisfied by *api.Client.
type Uploader interface {
	UploadTempAlbum(ctx context.Context, data []byte) (*api.TempAlbumResponse, error)
	GetGamemodes(ctx context.Context) (*api.GetGamemodesResponse, error)
	UploadAlbum(ctx context.Context, temporaryAlbumUUID string, gamemodeID int64, tagIDs []int64, playedAt string, pages []api.PageMetaData) (*api.AlbumDetail, error)
}

// ReadFileFunc reads the selected file's content. Injectable for tests.
type ReadFileFunc func(path string) ([]byte, error)

// Wizard walks one upload through SelectFile → Staged → (ConfirmDuplicate)
// → MetadataEntry → Committing → Done. Cancelling at any non-terminal phase
// discards all staged and edited data; the orphaned temporary upload is the
// server's to clean up.
type Wizard struct {
	uploader Uploader
	history  *sql.DB // optional, nil disables the local duplicate pre-check
	readFile ReadFileFunc

	// presentational pause before entering metadata entry, mirrored from
	// the original wizard's step transition
	TransitionDelay time.Duration

	phase    Phase
	fileName string
	data     []byte
	digest   string
	playedAt time.Time
	gifInfo  *media.GIFInfo

	localDuplicate *database.UploadRecord

	tempUUID  string
	hashMatch *int64
	pages     []api.PageMetaData
	gamemodes []api.Gamemode

	gamemodeID int64
	tagIDs     []int64
}

func NewWizard(uploader Uploader, history *sql.DB, readFile ReadFileFunc) *Wizard {
	return &Wizard{
		uploader: uploader,
		history:  history,
		readFile: readFile,
		phase:    PhaseSelectFile,
	}
}

func (w *Wizard) Phase() Phase { return w.phase }

// SelectFile validates and loads a local capture file. No network traffic
// happens here; an invalid file never produces a staging request.
func (w *Wizard) SelectFile(path string) error {
	if w.phase != PhaseSelectFile {
		return ErrWrongPhase
	}

	data, err := w.readFile(path)
	if err != nil {
		w.clearSelection()
		return fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	fileName := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(fileName), ".gif") {
		w.clearSelection()
		return ErrNotGIF
	}
	playedAt, err := media.ParseCaptureName(fileName)
	if err != nil {
		w.clearSelection()
		return fmt.Errorf("%w: %v", ErrBadCaptureName, err)
	}

	w.fileName = fileName
	w.data = data
	w.playedAt = playedAt
	w.digest = media.ContentDigest(data)

	// advisory decode; the server still authoritatively validates content
	// when staging
	w.gifInfo = nil
	if info, err := media.InspectGIF(data); err == nil {
		w.gifInfo = &info
	}

	// local pre-check against the upload history; a hit is advisory, the
	// server's own hash match still gates staging
	w.localDuplicate = nil
	if w.history != nil {
		rec, err := database.GetUploadByDigest(w.history, w.digest)
		if err != nil {
			log.Printf("upload history lookup failed: %v", err)
		} else {
			w.localDuplicate = rec
		}
	}
	return nil
}

// FileName returns the selected file's name, or "" before selection.
func (w *Wizard) FileName() string { return w.fileName }

// PlayedAt returns the capture timestamp parsed from the file name.
func (w *Wizard) PlayedAt() time.Time { return w.playedAt }

// LocalDuplicate reports a previous committed upload of identical content,
// or nil. Valid after SelectFile.
func (w *Wizard) LocalDuplicate() *database.UploadRecord { return w.localDuplicate }

// GIFInfo reports the locally decoded page count and dimensions of the
// selected file, or nil when the content did not decode as a GIF.
func (w *Wizard) GIFInfo() *media.GIFInfo { return w.gifInfo }

// Preview renders a thumbnail of the selected file's first frame into dir
// and returns its path. Only valid while a decodable file is selected.
func (w *Wizard) Preview(dir string, maxSize int) (string, error) {
	if w.data == nil || w.gifInfo == nil {
		return "", fmt.Errorf("no decodable file selected")
	}
	frame, err := media.FirstFrame(w.data)
	if err != nil {
		return "", err
	}
	return media.GenerateThumbnail(frame, dir, maxSize, maxSize)
}

// Stage uploads the file content to temporary storage and then, only after
// that resolves, fetches the gamemode list. A server-detected content hash
// match parks the wizard in ConfirmDuplicate until the user decides.
func (w *Wizard) Stage(ctx context.Context) error {
	if w.phase != PhaseSelectFile || w.data == nil {
		return ErrWrongPhase
	}

	resp, err := w.uploader.UploadTempAlbum(ctx, w.data)
	if err != nil {
		return fmt.Errorf("failed to stage album: %w", err)
	}
	modes, err := w.uploader.GetGamemodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gamemodes: %w", err)
	}
	if len(modes.Gamemodes) == 0 {
		return fmt.Errorf("server returned no gamemodes")
	}

	w.phase = PhaseStaged
	w.tempUUID = resp.TemporaryAlbumUUID
	w.hashMatch = resp.HashMatchResult
	w.pages = resp.PageMetaData
	w.gamemodes = modes.Gamemodes
	w.gamemodeID = modes.Gamemodes[0].ID

	if w.hashMatch != nil {
		w.phase = PhaseConfirmDuplicate
		return nil
	}
	w.enterMetadataEntry()
	return nil
}

// ConfirmDuplicate resolves the duplicate-content prompt. Proceeding moves
// on to metadata entry; cancelling returns to file selection with the staged
// data discarded (the selected file is kept).
func (w *Wizard) ConfirmDuplicate(proceed bool) error {
	if w.phase != PhaseConfirmDuplicate {
		return ErrWrongPhase
	}
	if proceed {
		w.enterMetadataEntry()
		return nil
	}
	w.discardStaged()
	w.phase = PhaseSelectFile
	return nil
}

func (w *Wizard) enterMetadataEntry() {
	if w.TransitionDelay > 0 {
		time.Sleep(w.TransitionDelay)
	}
	w.phase = PhaseMetadataEntry
}

// HashMatch reports the server's duplicate-content indicator, or nil.
func (w *Wizard) HashMatch() *int64 { return w.hashMatch }

// Pages returns the editable per-page metadata stubs.
func (w *Wizard) Pages() []api.PageMetaData { return w.pages }

// Gamemodes returns the list fetched when staging, for selection.
func (w *Wizard) Gamemodes() []api.Gamemode { return w.gamemodes }

// GamemodeID returns the currently chosen gamemode.
func (w *Wizard) GamemodeID() int64 { return w.gamemodeID }

// SetPageMetaData edits one page's description/player-name pair.
func (w *Wizard) SetPageMetaData(index int, description, playerName string) error {
	if w.phase != PhaseMetadataEntry {
		return ErrWrongPhase
	}
	if index < 0 || index >= len(w.pages) {
		return fmt.Errorf("page index %d out of range", index)
	}
	w.pages[index].Description = description
	w.pages[index].PlayerName = playerName
	return nil
}

// SetGamemode chooses the gamemode for the committed album.
func (w *Wizard) SetGamemode(id int64) error {
	if w.phase != PhaseMetadataEntry {
		return ErrWrongPhase
	}
	for _, mode := range w.gamemodes {
		if mode.ID == id {
			w.gamemodeID = id
			return nil
		}
	}
	return fmt.Errorf("unknown gamemode id %d", id)
}

// SetTags attaches tag ids to the committed album.
func (w *Wizard) SetTags(tagIDs []int64) error {
	if w.phase != PhaseMetadataEntry {
		return ErrWrongPhase
	}
	w.tagIDs = tagIDs
	return nil
}

// Commit finalizes the staged upload into a permanent album. The wizard
// terminates whether or not the commit succeeds: a server-side failure
// surfaces as an error but never holds the wizard open. A 401 has already
// forced logout through the client hook by the time the error returns.
func (w *Wizard) Commit(ctx context.Context) (*api.AlbumDetail, error) {
	if w.phase != PhaseMetadataEntry {
		return nil, ErrWrongPhase
	}
	w.phase = PhaseCommitting

	playedAt := w.playedAt.Format("2006-01-02T15:04:05-07:00")
	album, err := w.uploader.UploadAlbum(ctx, w.tempUUID, w.gamemodeID, w.tagIDs, playedAt, w.pages)
	w.phase = PhaseDone
	if err != nil {
		return nil, fmt.Errorf("failed to commit album: %w", err)
	}

	if w.history != nil {
		if err := database.AddUploadRecord(w.history, w.digest, album.ID, w.fileName); err != nil {
			log.Printf("failed to record upload history: %v", err)
		}
	}
	return album, nil
}

// Cancel discards everything and resets to file selection.
func (w *Wizard) Cancel() {
	w.clearSelection()
	w.discardStaged()
	w.phase = PhaseSelectFile
}

func (w *Wizard) clearSelection() {
	w.fileName = ""
	w.data = nil
	w.digest = ""
	w.playedAt = time.Time{}
	w.gifInfo = nil
	w.localDuplicate = nil
}

func (w *Wizard) discardStaged() {
	w.tempUUID = ""
	w.hashMatch = nil
	w.pages = nil
	w.gamemodes = nil
	w.gamemodeID = 0
	w.tagIDs = nil
}
