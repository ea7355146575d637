package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/purple-archive/archiveclient/config"
	"github.com/purple-archive/archiveclient/media"
)

// ThumbnailJob asks for one album's thumb content to be cached locally.
type ThumbnailJob struct {
	AlbumID     int64
	ThumbSource string
}

// FetchFunc downloads raw content from a thumb source URL.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// ThumbnailPrefetcher caches list-view thumbnails in the background so the
// viewer does not hit the network for albums already seen.
type ThumbnailPrefetcher struct {
	JobQueue chan ThumbnailJob
	Config   config.Config
	Fetch    FetchFunc
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[int64]bool
	Mutex    sync.Mutex
}

func NewThumbnailPrefetcher(cfg config.Config, fetch FetchFunc, queueSize, numWorkers int) *ThumbnailPrefetcher {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	p := &ThumbnailPrefetcher{
		JobQueue: make(chan ThumbnailJob, queueSize),
		Config:   cfg,
		Fetch:    fetch,
		StopChan: make(chan struct{}),
		Pending:  make(map[int64]bool),
	}
	p.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d thumbnail prefetch worker(s) with queue size %d", numWorkers, queueSize)
	return p
}

// CachedPath is where an album's thumbnail lives once prefetched.
func (p *ThumbnailPrefetcher) CachedPath(albumID int64) string {
	return filepath.Join(p.Config.ThumbnailsPath, fmt.Sprintf("album_%d.jpg", albumID))
}

// QueueThumbnail enqueues a prefetch unless the thumbnail is already cached
// or a job for the same album is pending. The queue is best effort: a full
// queue drops the job.
func (p *ThumbnailPrefetcher) QueueThumbnail(job ThumbnailJob) {
	if _, err := os.Stat(p.CachedPath(job.AlbumID)); err == nil {
		return
	}

	p.Mutex.Lock()
	if p.Pending[job.AlbumID] {
		p.Mutex.Unlock()
		return
	}
	p.Pending[job.AlbumID] = true
	p.Mutex.Unlock()

	select {
	case p.JobQueue <- job:
	default:
		log.Printf("thumbnail queue full, dropping prefetch for album %d", job.AlbumID)
		p.Mutex.Lock()
		delete(p.Pending, job.AlbumID)
		p.Mutex.Unlock()
	}
}

func (p *ThumbnailPrefetcher) worker(id int) {
	defer p.Wg.Done()

	for {
		select {
		case job, ok := <-p.JobQueue:
			if !ok {
				log.Printf("thumbnail worker %d stopping: job queue closed", id)
				return
			}

			p.process(id, job)

			p.Mutex.Lock()
			delete(p.Pending, job.AlbumID)
			p.Mutex.Unlock()

		case <-p.StopChan:
			log.Printf("thumbnail worker %d stopping: stop signal received", id)
			return
		}
	}
}

// process runs one job. Fetching uses the session's auth header, which
// panics if the session is torn down between enqueue and execution; that
// race only costs the one prefetch.
func (p *ThumbnailPrefetcher) process(id int, job ThumbnailJob) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("thumbnail worker %d: prefetch for album %d abandoned: %v", id, job.AlbumID, r)
		}
	}()

	data, err := p.Fetch(context.Background(), job.ThumbSource)
	if err != nil {
		log.Printf("thumbnail worker %d: fetch failed for album %d: %v", id, job.AlbumID, err)
		return
	}
	if err := media.SaveThumbnailAs(data, p.CachedPath(job.AlbumID), p.Config.ThumbnailMaxSize, p.Config.ThumbnailMaxSize); err != nil {
		log.Printf("thumbnail worker %d: save failed for album %d: %v", id, job.AlbumID, err)
	}
}

// Stop signals all workers and waits for them to exit.
func (p *ThumbnailPrefetcher) Stop() {
	close(p.StopChan)
	p.Wg.Wait()
}
