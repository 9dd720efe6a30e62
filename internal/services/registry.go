package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// CheckTimeout bounds a single health check run by CheckAll
const CheckTimeout = 5 * time.Second

// Registry manages dependency probes
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewRegistry creates a new probe registry
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

// Register adds a probe to the registry under its name
func (r *Registry) Register(probe Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[probe.Name()] = probe
}

// Get retrieves a probe by name
func (r *Registry) Get(name string) Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.probes[name]
}

// List returns all registered probe names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a probe from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.probes, name)
}

// CheckAll runs every probe concurrently and returns each result by name,
// along with the first failure. A failing probe does not stop the others;
// cancelling ctx does.
func (r *Registry) CheckAll(ctx context.Context) (map[string]error, error) {
	r.mu.RLock()
	probes := make([]Probe, 0, len(r.probes))
	for _, p := range r.probes {
		probes = append(probes, p)
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]error, len(probes))
		g       errgroup.Group
	)

	for _, p := range probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, CheckTimeout)
			defer cancel()

			err := p.HealthCheck(pctx)
			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	err := g.Wait()

	return results, err
}
