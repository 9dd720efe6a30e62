package scheduler

import (
	"sync"
	"time"
)

// Debouncer delays a call until wait has passed without a new trigger.
// Each Trigger replaces the pending call, so only the last one inside
// the window runs.
type Debouncer struct {
	sched   Scheduler
	wait    time.Duration
	mu      sync.Mutex
	pending Handle
	seq     uint64
}

// NewDebouncer creates a debouncer on top of s
func NewDebouncer(s Scheduler, wait time.Duration) *Debouncer {
	return &Debouncer{sched: s, wait: wait}
}

// Trigger schedules f, cancelling whatever was pending
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}
	d.seq++
	seq := d.seq

	d.pending = d.sched.After(d.wait, func() {
		d.mu.Lock()
		// a later Trigger or Stop may have raced with this timer firing
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		f()
	})
}

// Stop cancels the pending call, if any
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
	d.seq++
}
