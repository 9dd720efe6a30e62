package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Purger drops state that has outlived its TTL
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Cleaner handles periodic purging of expired quiz sessions and conversations
type Cleaner struct {
	purgers  map[string]Purger
	interval time.Duration
	done     chan struct{}
}

// NewCleaner creates a new cleanup worker over the named purgers
func NewCleaner(purgers map[string]Purger, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		purgers:  purgers,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the worker has stopped
func (c *Cleaner) Done() <-chan struct{} {
	return c.done
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	defer close(c.done)
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup runs every purger once
func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	for name, p := range c.purgers {
		purged, err := p.PurgeExpired(ctx)
		if err != nil {
			slog.Error("failed to purge expired state",
				"error", err,
				"store", name,
			)
			continue
		}

		if purged > 0 {
			slog.Info("expired state purged",
				"store", name,
				"count", purged,
			)
		}
	}
}
