package daemon

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 for a burst of triggers", got)
	}
}

func TestDebouncerRunsAgainAfterQuiet(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { runs.Add(1) })

	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	d.Trigger()
	time.Sleep(50 * time.Millisecond)

	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2 for separated triggers", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

	d.Trigger()
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("runs = %d after Stop, want 0", got)
	}
}

func TestDebouncerFlushRunsPendingNow(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(time.Hour, func() { runs.Add(1) })

	d.Flush()
	if got := runs.Load(); got != 0 {
		t.Fatalf("Flush with nothing pending ran the task %d times", got)
	}

	d.Trigger()
	d.Flush()
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d after Flush, want 1", got)
	}

	time.Sleep(20 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, flushed task must not run again", got)
	}
}
