package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color/palette"
	"image/gif"
	"os"
	"testing"
	"time"

	"github.com/purple-archive/archiveclient/api"
	"github.com/purple-archive/archiveclient/database"
	"github.com/purple-archive/archiveclient/media"
)

// fakeUploader counts every network call and answers from canned data.
type fakeUploader struct {
	stageCalls    int
	gamemodeCalls int
	commitCalls   int

	hashMatch *int64
	stageErr  error
	commitErr error

	lastCommit struct {
		tempUUID   string
		gamemodeID int64
		tagIDs     []int64
		playedAt   string
		pages      []api.PageMetaData
	}
}

func (f *fakeUploader) UploadTempAlbum(_ context.Context, data []byte) (*api.TempAlbumResponse, error) {
	f.stageCalls++
	if f.stageErr != nil {
		return nil, f.stageErr
	}
	return &api.TempAlbumResponse{
		TemporaryAlbumUUID: "9f1c7a9e-8a2f-4a4e-9a61-0b2d5a8c3f10",
		HashMatchResult:    f.hashMatch,
		PageMetaData:       []api.PageMetaData{{}, {}},
	}, nil
}

func (f *fakeUploader) GetGamemodes(_ context.Context) (*api.GetGamemodesResponse, error) {
	f.gamemodeCalls++
	return &api.GetGamemodesResponse{Gamemodes: []api.Gamemode{
		{ID: 1, Name: "standard"},
		{ID: 2, Name: "hardcore"},
	}}, nil
}

func (f *fakeUploader) UploadAlbum(_ context.Context, tempUUID string, gamemodeID int64, tagIDs []int64, playedAt string, pages []api.PageMetaData) (*api.AlbumDetail, error) {
	f.commitCalls++
	f.lastCommit.tempUUID = tempUUID
	f.lastCommit.gamemodeID = gamemodeID
	f.lastCommit.tagIDs = tagIDs
	f.lastCommit.playedAt = playedAt
	f.lastCommit.pages = pages
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return &api.AlbumDetail{ID: 77}, nil
}

func readerFor(data []byte) ReadFileFunc {
	return func(string) ([]byte, error) { return data, nil }
}

const validName = "/captures/gp-20230102-030405.gif"

func TestSelectFileRejectionsMakeNoRequests(t *testing.T) {
	fake := &fakeUploader{}

	cases := []struct {
		name    string
		path    string
		read    ReadFileFunc
		wantErr error
	}{
		{"unreadable", validName, func(string) ([]byte, error) { return nil, errors.New("no such file") }, ErrFileRead},
		{"not a gif", "/captures/gp-20230102-030405.png", readerFor([]byte("png")), ErrNotGIF},
		{"bad capture name", "/captures/animation.gif", readerFor([]byte("gif")), ErrBadCaptureName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWizard(fake, nil, tc.read)
			if err := w.SelectFile(tc.path); !errors.Is(err, tc.wantErr) {
				t.Fatalf("SelectFile = %v, want %v", err, tc.wantErr)
			}
			if err := w.Stage(context.Background()); !errors.Is(err, ErrWrongPhase) {
				t.Errorf("Stage after rejection = %v, want ErrWrongPhase", err)
			}
		})
	}
	if fake.stageCalls != 0 || fake.gamemodeCalls != 0 || fake.commitCalls != 0 {
		t.Errorf("rejected selections issued requests: stage %d, gamemodes %d, commit %d",
			fake.stageCalls, fake.gamemodeCalls, fake.commitCalls)
	}
}

func TestStageThenCommit(t *testing.T) {
	fake := &fakeUploader{}
	w := NewWizard(fake, nil, readerFor([]byte("gifdata")))

	if err := w.SelectFile(validName); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if err := w.Stage(context.Background()); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if w.Phase() != PhaseMetadataEntry {
		t.Fatalf("phase = %v, want metadata entry without a hash match", w.Phase())
	}
	if w.GamemodeID() != 1 {
		t.Errorf("default gamemode = %d, want the first listed", w.GamemodeID())
	}

	if err := w.SetPageMetaData(0, "final boss", "Alpaca"); err != nil {
		t.Fatalf("SetPageMetaData failed: %v", err)
	}
	if err := w.SetGamemode(2); err != nil {
		t.Fatalf("SetGamemode failed: %v", err)
	}
	if err := w.SetTags([]int64{4, 9}); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}

	album, err := w.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if album.ID != 77 {
		t.Errorf("album id = %d, want 77", album.ID)
	}
	if w.Phase() != PhaseDone {
		t.Errorf("phase = %v, want done", w.Phase())
	}

	c := fake.lastCommit
	if c.tempUUID != "9f1c7a9e-8a2f-4a4e-9a61-0b2d5a8c3f10" {
		t.Errorf("commit tempUUID = %q", c.tempUUID)
	}
	if c.gamemodeID != 2 || len(c.tagIDs) != 2 {
		t.Errorf("commit gamemode %d tags %v", c.gamemodeID, c.tagIDs)
	}
	wantPlayedAt := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local).Format("2006-01-02T15:04:05-07:00")
	if c.playedAt != wantPlayedAt {
		t.Errorf("commit playedAt = %q, want %q", c.playedAt, wantPlayedAt)
	}
	if len(c.pages) != 2 || c.pages[0].Description != "final boss" || c.pages[0].PlayerName != "Alpaca" {
		t.Errorf("commit pages = %+v", c.pages)
	}
}

func TestHashMatchGatesMetadataEntry(t *testing.T) {
	matched := int64(31)
	fake := &fakeUploader{hashMatch: &matched}
	w := NewWizard(fake, nil, readerFor([]byte("gifdata")))

	w.SelectFile(validName)
	if err := w.Stage(context.Background()); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if w.Phase() != PhaseConfirmDuplicate {
		t.Fatalf("phase = %v, want confirm duplicate", w.Phase())
	}
	if w.HashMatch() == nil || *w.HashMatch() != 31 {
		t.Errorf("HashMatch = %v, want 31", w.HashMatch())
	}

	// metadata operations are locked out until the user decides
	if err := w.SetGamemode(2); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("SetGamemode while confirming = %v, want ErrWrongPhase", err)
	}
	if _, err := w.Commit(context.Background()); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Commit while confirming = %v, want ErrWrongPhase", err)
	}

	if err := w.ConfirmDuplicate(true); err != nil {
		t.Fatalf("ConfirmDuplicate failed: %v", err)
	}
	if w.Phase() != PhaseMetadataEntry {
		t.Errorf("phase = %v, want metadata entry after proceeding", w.Phase())
	}
}

func TestConfirmDuplicateCancelKeepsSelection(t *testing.T) {
	matched := int64(31)
	fake := &fakeUploader{hashMatch: &matched}
	w := NewWizard(fake, nil, readerFor([]byte("gifdata")))

	w.SelectFile(validName)
	w.Stage(context.Background())
	if err := w.ConfirmDuplicate(false); err != nil {
		t.Fatalf("ConfirmDuplicate failed: %v", err)
	}
	if w.Phase() != PhaseSelectFile {
		t.Errorf("phase = %v, want select file after cancel", w.Phase())
	}
	if w.FileName() == "" {
		t.Error("cancelling the duplicate prompt must keep the selected file")
	}
	if w.Pages() != nil || w.HashMatch() != nil {
		t.Error("staged data must be discarded on cancel")
	}
}

func TestCommitFailureStillTerminates(t *testing.T) {
	fake := &fakeUploader{commitErr: errors.New("backend exploded")}
	w := NewWizard(fake, nil, readerFor([]byte("gifdata")))

	w.SelectFile(validName)
	w.Stage(context.Background())
	if _, err := w.Commit(context.Background()); err == nil {
		t.Fatal("Commit must surface the server failure")
	}
	if w.Phase() != PhaseDone {
		t.Errorf("phase = %v: a failed commit must still terminate the wizard", w.Phase())
	}
}

func TestLocalDuplicatePreCheck(t *testing.T) {
	db, err := database.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer db.Close()

	content := []byte("gifdata")
	if err := database.AddUploadRecord(db, media.ContentDigest(content), 7, "gp-20230101-000000.gif"); err != nil {
		t.Fatalf("AddUploadRecord failed: %v", err)
	}

	w := NewWizard(&fakeUploader{}, db, readerFor(content))
	if err := w.SelectFile(validName); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	dup := w.LocalDuplicate()
	if dup == nil || dup.AlbumID != 7 {
		t.Fatalf("LocalDuplicate = %+v, want album 7", dup)
	}

	// unseen content produces no hit
	w2 := NewWizard(&fakeUploader{}, db, readerFor([]byte("other")))
	if err := w2.SelectFile(validName); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if w2.LocalDuplicate() != nil {
		t.Error("unseen content must not report a local duplicate")
	}
}

func TestSelectFileDecodesGIFInfo(t *testing.T) {
	g := &gif.GIF{}
	for i := 0; i < 2; i++ {
		g.Image = append(g.Image, image.NewPaletted(image.Rect(0, 0, 8, 6), palette.Plan9))
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("failed to encode test gif: %v", err)
	}

	w := NewWizard(&fakeUploader{}, nil, readerFor(buf.Bytes()))
	if err := w.SelectFile(validName); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	info := w.GIFInfo()
	if info == nil || info.PageCount != 2 || info.Width != 8 {
		t.Fatalf("GIFInfo = %+v, want 2 pages 8x6", info)
	}

	path, err := w.Preview(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preview file missing: %v", err)
	}

	// undecodable content is advisory only, selection still succeeds
	w2 := NewWizard(&fakeUploader{}, nil, readerFor([]byte("gifdata")))
	if err := w2.SelectFile(validName); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if w2.GIFInfo() != nil {
		t.Error("GIFInfo must be nil for undecodable content")
	}
	if _, err := w2.Preview(t.TempDir(), 64); err == nil {
		t.Error("Preview must fail without decodable content")
	}
}

func TestCancelResetsEverything(t *testing.T) {
	fake := &fakeUploader{}
	w := NewWizard(fake, nil, readerFor([]byte("gifdata")))
	w.SelectFile(validName)
	w.Stage(context.Background())

	w.Cancel()
	if w.Phase() != PhaseSelectFile {
		t.Errorf("phase = %v, want select file", w.Phase())
	}
	if w.FileName() != "" || w.Pages() != nil {
		t.Error("cancel must discard the selection and staged data")
	}
}
