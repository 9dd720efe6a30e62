// Package scheduler provides cancellable one-shot and repeating timers
// and a debouncer built on them.
package scheduler

import (
	"sync"
	"time"
)

// Handle cancels a scheduled run
type Handle interface {
	// Cancel stops future runs. It reports whether anything was still pending.
	Cancel() bool
}

// Scheduler runs functions later
type Scheduler interface {
	// After runs f once after d
	After(d time.Duration, f func()) Handle
	// Every runs f every d until cancelled
	Every(d time.Duration, f func()) Handle
}

// Clock is the wall-clock Scheduler
type Clock struct{}

// NewClock returns the wall-clock scheduler
func NewClock() Clock {
	return Clock{}
}

// After implements Scheduler using time.AfterFunc
func (Clock) After(d time.Duration, f func()) Handle {
	return timerHandle{time.AfterFunc(d, f)}
}

// Every implements Scheduler using a ticker goroutine
func (Clock) Every(d time.Duration, f func()) Handle {
	h := &tickerHandle{
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go h.run(f)
	return h
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.t.Stop()
}

type tickerHandle struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) run(f func()) {
	defer h.ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-h.ticker.C:
			f()
		}
	}
}

func (h *tickerHandle) Cancel() bool {
	cancelled := false
	h.once.Do(func() {
		close(h.stop)
		cancelled = true
	})
	return cancelled
}
