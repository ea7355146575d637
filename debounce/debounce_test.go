package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestOnlyLastScheduledRuns(t *testing.T) {
	db := New(30 * time.Millisecond)
	var first, second atomic.Int32

	db.Schedule(func() { first.Add(1) })
	time.Sleep(10 * time.Millisecond)
	db.Schedule(func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("superseded function must not run")
	}
	if second.Load() != 1 {
		t.Errorf("last scheduled ran %d times, want 1", second.Load())
	}
}

func TestCancelDropsPending(t *testing.T) {
	db := New(20 * time.Millisecond)
	var ran atomic.Int32

	db.Schedule(func() { ran.Add(1) })
	db.Cancel()

	time.Sleep(80 * time.Millisecond)
	if ran.Load() != 0 {
		t.Error("cancelled function must not run")
	}
}

func TestRescheduleAfterCancel(t *testing.T) {
	db := New(10 * time.Millisecond)
	var ran atomic.Int32

	db.Schedule(func() { ran.Add(1) })
	db.Cancel()
	db.Schedule(func() { ran.Add(1) })

	time.Sleep(60 * time.Millisecond)
	if ran.Load() != 1 {
		t.Errorf("ran %d times, want 1 after cancel and reschedule", ran.Load())
	}
}
