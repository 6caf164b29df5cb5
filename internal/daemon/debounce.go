package daemon

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single invocation of its
// task after a fixed delay. It holds one pending-task slot: each Trigger
// cancels any pending run and schedules a fresh one, so N triggers within
// the window produce exactly one run.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	task  func()
	timer *time.Timer
}

// NewDebouncer creates a debouncer running task after delay.
func NewDebouncer(delay time.Duration, task func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		task:  task,
	}
}

// Trigger schedules the task, replacing any pending schedule.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.run)
}

func (d *Debouncer) run() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.task()
}

// Flush cancels any pending schedule and runs the task immediately if one
// was pending. Used at shutdown so a scheduled snapshot is not lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		d.task()
	}
}

// Stop cancels any pending schedule without running the task.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
