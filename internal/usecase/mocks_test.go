//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"hotspot-pix-portal/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// MockPaymentGateway is an in-memory gateway with overridable hooks.
type MockPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	outcomes map[string]adapter.ChargeOutcome

	IssueChargeFunc func(ctx context.Context, amountCents int64, description string) (adapter.Charge, error)
	LookupFunc      func(ctx context.Context, chargeID string) (adapter.ChargeOutcome, error)
}

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{outcomes: make(map[string]adapter.ChargeOutcome)}
}

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) IssueCharge(ctx context.Context, amountCents int64, description string) (adapter.Charge, error) {
	if g.IssueChargeFunc != nil {
		return g.IssueChargeFunc(ctx, amountCents, description)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("charge-%d", g.seq)
	g.outcomes[id] = adapter.ChargeOutcomePending
	return adapter.Charge{ID: id, QRPayload: "pix-payload-" + id}, nil
}

func (g *MockPaymentGateway) LookupCharge(ctx context.Context, chargeID string) (adapter.ChargeOutcome, error) {
	if g.LookupFunc != nil {
		return g.LookupFunc(ctx, chargeID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.outcomes[chargeID]
	if !ok {
		return "", errors.New("mock: charge not found")
	}
	return o, nil
}

// MockRouterProvisioner counts Grant invocations per identifier.
type MockRouterProvisioner struct {
	mu        sync.Mutex
	grants    map[string]int
	durations map[string]time.Duration
	calls     int64

	GrantFunc func(ctx context.Context, identifier string, duration time.Duration) error
}

func NewMockRouterProvisioner() *MockRouterProvisioner {
	return &MockRouterProvisioner{
		grants:    make(map[string]int),
		durations: make(map[string]time.Duration),
	}
}

func (p *MockRouterProvisioner) Name() string { return "mock" }

func (p *MockRouterProvisioner) Grant(ctx context.Context, identifier string, duration time.Duration) error {
	atomic.AddInt64(&p.calls, 1)
	p.mu.Lock()
	p.grants[identifier]++
	p.durations[identifier] = duration
	p.mu.Unlock()
	if p.GrantFunc != nil {
		return p.GrantFunc(ctx, identifier, duration)
	}
	return nil
}

func (p *MockRouterProvisioner) Revoke(ctx context.Context, identifier string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants, identifier)
	return nil
}

func (p *MockRouterProvisioner) GrantCount(identifier string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grants[identifier]
}

func (p *MockRouterProvisioner) GrantedDuration(identifier string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durations[identifier]
}

func (p *MockRouterProvisioner) TotalCalls() int64 {
	return atomic.LoadInt64(&p.calls)
}
