package listing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/purple-archive/archiveclient/api"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key]
}

// recordingLister captures every request and answers from a fixed response.
type recordingLister struct {
	mu    sync.Mutex
	calls []api.GetAlbumsParams
	resp  api.GetAlbumsResponse
}

func (l *recordingLister) GetAlbums(_ context.Context, params api.GetAlbumsParams) (*api.GetAlbumsResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, params)
	resp := l.resp
	return &resp, nil
}

func (l *recordingLister) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *recordingLister) lastCall() api.GetAlbumsParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[len(l.calls)-1]
}

func TestInitializeRestoresPersistedState(t *testing.T) {
	store := newMemStore()
	store.Set("albumsFilterPD", "boss")
	store.Set("albumsFilterMB", "true")
	store.Set("albumsSortOrder", "2")
	store.Set("albumsPage", "3")

	lister := &recordingLister{resp: api.GetAlbumsResponse{AlbumsCountAll: 100}}
	st := NewState(context.Background(), store, lister, 12)
	if err := st.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	st.Wait()

	if got := lister.callCount(); got != 1 {
		t.Fatalf("fetch count = %d, want 1", got)
	}
	params := lister.lastCall()
	if params.PartialDescription == nil || *params.PartialDescription != "boss" {
		t.Error("restored partial description missing from the query")
	}
	if params.MyBookmark == nil || !*params.MyBookmark {
		t.Error("restored bookmark flag missing from the query")
	}
	if params.Offset == nil || *params.Offset != 36 {
		t.Errorf("offset = %v, want 36 for page 3", params.Offset)
	}
	if *params.OrderBy != SortModes[2].OrderBy || *params.Order != SortModes[2].Order {
		t.Errorf("sort = %s %s, want %s %s", *params.OrderBy, *params.Order, SortModes[2].OrderBy, SortModes[2].Order)
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	lister := &recordingLister{}
	st := NewState(context.Background(), newMemStore(), lister, 12)
	st.Initialize()
	st.Initialize()
	st.Wait()
	if got := lister.callCount(); got != 1 {
		t.Errorf("fetch count after double Initialize = %d, want 1", got)
	}
}

func TestUpdateFilterResetsPageAndPersists(t *testing.T) {
	store := newMemStore()
	lister := &recordingLister{resp: api.GetAlbumsResponse{AlbumsCountAll: 100}}
	st := NewState(context.Background(), store, lister, 12)
	st.Initialize()
	st.SetPage(2)
	st.Wait()

	st.UpdateFilter(Filter{PartialTag: "boss"})
	st.Wait()

	params := lister.lastCall()
	if params.Offset == nil || *params.Offset != 0 {
		t.Errorf("offset after filter change = %v, want 0", params.Offset)
	}
	if params.PartialTag == nil || *params.PartialTag != "boss" {
		t.Error("partialTag missing from the query")
	}
	if got := store.get("albumsFilterPT"); got != "boss" {
		t.Errorf("persisted albumsFilterPT = %q, want boss", got)
	}
	if got := store.get("albumsPage"); got != "0" {
		t.Errorf("persisted albumsPage = %q, want 0", got)
	}

	// clearing must overwrite the persisted value, not leave it behind
	st.UpdateFilter(Filter{})
	st.Wait()
	if got := store.get("albumsFilterPT"); got != "" {
		t.Errorf("persisted albumsFilterPT after clear = %q, want empty", got)
	}
	if params := lister.lastCall(); params.PartialTag != nil {
		t.Error("cleared filter field must be omitted from the query")
	}
}

func TestUpdateSortResetsPage(t *testing.T) {
	store := newMemStore()
	lister := &recordingLister{resp: api.GetAlbumsResponse{AlbumsCountAll: 100}}
	st := NewState(context.Background(), store, lister, 12)
	st.Initialize()
	st.SetPage(4)
	st.Wait()

	if err := st.UpdateSort(1); err != nil {
		t.Fatalf("UpdateSort failed: %v", err)
	}
	st.Wait()

	params := lister.lastCall()
	if *params.Offset != 0 {
		t.Errorf("offset after sort change = %d, want 0", *params.Offset)
	}
	if *params.OrderBy != "playedAt" || *params.Order != "asc" {
		t.Errorf("sort = %s %s, want playedAt asc", *params.OrderBy, *params.Order)
	}
	if got := store.get("albumsSortOrder"); got != "1" {
		t.Errorf("persisted albumsSortOrder = %q, want 1", got)
	}
	if got := store.get("albumsPage"); got != "0" {
		t.Errorf("persisted albumsPage = %q, want 0", got)
	}

	if err := st.UpdateSort(len(SortModes)); err == nil {
		t.Error("out-of-range sort index must be rejected")
	}
}

// pagedLister serves a fixed 24 albums in pages of 12; out-of-range offsets
// return an empty page with the same total.
type pagedLister struct {
	mu    sync.Mutex
	calls int
}

func (l *pagedLister) GetAlbums(_ context.Context, params api.GetAlbumsParams) (*api.GetAlbumsResponse, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()

	resp := &api.GetAlbumsResponse{AlbumsCountAll: 24}
	offset := *params.Offset
	for i := offset; i < offset+*params.Limit && i < 24; i++ {
		resp.Albums = append(resp.Albums, api.AlbumOutline{ID: int64(i + 1)})
	}
	return resp, nil
}

func (l *pagedLister) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestPageClampedWhenCountShrinks(t *testing.T) {
	store := newMemStore()
	lister := &pagedLister{}
	st := NewState(context.Background(), store, lister, 12)
	st.Initialize()
	st.Wait()

	st.SetPage(5)
	st.Wait()

	if got := st.Page(); got != 1 {
		t.Errorf("page = %d, want clamp to last page 1", got)
	}
	if got := store.get("albumsPage"); got != "1" {
		t.Errorf("persisted albumsPage = %q, want 1", got)
	}
	// the clamped page must actually be shown, not the empty out-of-range
	// response
	snap := st.Snapshot()
	if len(snap.Albums) != 12 {
		t.Errorf("rows after clamp = %d, want the clamped page's 12", len(snap.Albums))
	}
	if snap.Albums[0].ID != 13 {
		t.Errorf("first row id = %d, want 13 (second page)", snap.Albums[0].ID)
	}
	// initial fetch, out-of-range fetch, one follow-up for the clamped page
	if got := lister.callCount(); got != 3 {
		t.Errorf("fetch count = %d, want 3", got)
	}
}

// blockingLister holds the first, unfiltered request until released, so a
// later request can finish first.
type blockingLister struct {
	release chan struct{}
}

func (l *blockingLister) GetAlbums(_ context.Context, params api.GetAlbumsParams) (*api.GetAlbumsResponse, error) {
	if params.PartialDescription == nil {
		<-l.release
		return &api.GetAlbumsResponse{AlbumsCountAll: 99}, nil
	}
	return &api.GetAlbumsResponse{AlbumsCountAll: 24}, nil
}

func TestStaleResponseDiscarded(t *testing.T) {
	lister := &blockingLister{release: make(chan struct{})}
	st := NewState(context.Background(), newMemStore(), lister, 12)

	applied := make(chan Snapshot, 4)
	st.SetResultHook(func(snap Snapshot) { applied <- snap })

	st.Initialize()
	st.UpdateFilter(Filter{PartialDescription: "x"})

	select {
	case snap := <-applied:
		if snap.TotalCount != 24 {
			t.Fatalf("first applied total = %d, want the newer query's 24", snap.TotalCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("newer response never applied")
	}

	close(lister.release)
	st.Wait()

	// the stale response must be discarded before the hook, not applied
	select {
	case snap := <-applied:
		t.Errorf("stale response applied with total %d", snap.TotalCount)
	default:
	}
	if got := st.Snapshot().TotalCount; got != 24 {
		t.Errorf("total count = %d: stale response overwrote a newer one", got)
	}
}

// tearDownLister simulates a session torn down by a concurrent 401: the
// auth-header provider panics once the fetch goroutine reaches it.
type tearDownLister struct{}

func (tearDownLister) GetAlbums(context.Context, api.GetAlbumsParams) (*api.GetAlbumsResponse, error) {
	panic("session: no auth token persisted while entering API call")
}

func TestFetchSurvivesSessionTeardown(t *testing.T) {
	st := NewState(context.Background(), newMemStore(), tearDownLister{}, 12)
	st.Initialize()
	st.Wait()

	snap := st.Snapshot()
	if snap.Err == nil {
		t.Fatal("aborted fetch must surface as an error")
	}
	if snap.Loading {
		t.Error("aborted fetch must clear the loading flag")
	}
	if len(snap.Albums) != 0 || snap.TotalCount != 0 {
		t.Errorf("aborted fetch left results behind: %+v", snap)
	}

	// the state machine stays usable afterwards
	st.SetPage(1)
	st.Wait()
}

func TestApplyBookmarkMutatesOutlineInPlace(t *testing.T) {
	lister := &recordingLister{resp: api.GetAlbumsResponse{
		AlbumsCountAll: 1,
		Albums:         []api.AlbumOutline{{ID: 7, BookmarkCount: 3}},
	}}
	st := NewState(context.Background(), newMemStore(), lister, 12)
	st.Initialize()
	st.Wait()

	st.ApplyBookmark(7, true)
	snap := st.Snapshot()
	if !snap.Albums[0].IsBookmarked || snap.Albums[0].BookmarkCount != 4 {
		t.Errorf("after bookmark: %+v, want bookmarked with count 4", snap.Albums[0])
	}

	// repeated application must not double-count
	st.ApplyBookmark(7, true)
	if got := st.Snapshot().Albums[0].BookmarkCount; got != 4 {
		t.Errorf("bookmark count after repeat = %d, want 4", got)
	}

	// toggling back restores the original count
	st.ApplyBookmark(7, false)
	snap = st.Snapshot()
	if snap.Albums[0].IsBookmarked || snap.Albums[0].BookmarkCount != 3 {
		t.Errorf("after un-bookmark: %+v, want count back to 3", snap.Albums[0])
	}

	st.ApplyDownload(7)
	if got := st.Snapshot().Albums[0].DownloadCount; got != 1 {
		t.Errorf("download count = %d, want 1", got)
	}
}
