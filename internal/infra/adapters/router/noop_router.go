package router

import (
	"context"
	"sync"
	"time"

	"hotspot-pix-portal/internal/domain/ports/adapter"
)

var _ adapter.RouterProvisioner = (*NoopProvisioner)(nil)

// NoopProvisioner records grants in memory for dev mode and tests.
type NoopProvisioner struct {
	mu      sync.Mutex
	granted map[string]time.Duration
}

func NewNoopProvisioner() *NoopProvisioner {
	return &NoopProvisioner{granted: make(map[string]time.Duration)}
}

func (p *NoopProvisioner) Name() string { return "noop" }

func (p *NoopProvisioner) Grant(ctx context.Context, identifier string, duration time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted[identifier] = duration
	return nil
}

func (p *NoopProvisioner) Revoke(ctx context.Context, identifier string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.granted, identifier)
	return nil
}

// Granted reports whether identifier currently has access.
func (p *NoopProvisioner) Granted(identifier string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.granted[identifier]
	return d, ok
}
