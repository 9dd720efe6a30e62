package services

import (
	"context"
)

// Probe reports whether a dependency is reachable
type Probe interface {
	// Name returns the dependency name shown in readiness output
	Name() string

	// HealthCheck checks if the dependency is available
	HealthCheck(ctx context.Context) error
}

// BaseProbe provides the name of a probe
type BaseProbe struct {
	name string
}

// Name returns the probe name
func (p *BaseProbe) Name() string {
	return p.name
}

// PingFunc adapts a ping method into a Probe
type PingFunc struct {
	BaseProbe
	ping func(ctx context.Context) error
}

// NewPingProbe creates a probe that calls ping
func NewPingProbe(name string, ping func(ctx context.Context) error) *PingFunc {
	return &PingFunc{BaseProbe: BaseProbe{name: name}, ping: ping}
}

// HealthCheck calls the wrapped ping
func (p *PingFunc) HealthCheck(ctx context.Context) error {
	return p.ping(ctx)
}
