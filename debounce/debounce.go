// Package debounce provides a cancellable quiet-period timer, used to bound
// the request volume of per-keystroke tag suggestion lookups.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function once its quiet period
// elapses without another Schedule call. Scheduling supersedes any pending
// function; Cancel drops it.
type Debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	timer *time.Timer
}

func New(d time.Duration) *Debouncer {
	return &Debouncer{d: d}
}

// Schedule arms the timer with fn, cancelling whatever was pending.
func (db *Debouncer) Schedule(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, fn)
}

// Cancel drops any pending function without running it.
func (db *Debouncer) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
