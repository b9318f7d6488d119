package payment

import (
	"context"
	"fmt"
	"sync"

	"hotspot-pix-portal/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for dev mode and tests.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	outcomes map[string]adapter.ChargeOutcome
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{outcomes: make(map[string]adapter.ChargeOutcome)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) IssueCharge(ctx context.Context, amountCents int64, description string) (adapter.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.outcomes[id] = adapter.ChargeOutcomePending
	return adapter.Charge{
		ID:        id,
		QRPayload: fmt.Sprintf("00020126noop%s5204000053039865802BR", id),
	}, nil
}

func (g *NoopPaymentGateway) LookupCharge(ctx context.Context, chargeID string) (adapter.ChargeOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.outcomes[chargeID]
	if !ok {
		return "", fmt.Errorf("noop: charge %s not found", chargeID)
	}
	return o, nil
}

// SettleCharge marks a charge as paid or failed, standing in for the
// real provider's asynchronous settlement.
func (g *NoopPaymentGateway) SettleCharge(chargeID string, outcome adapter.ChargeOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.outcomes[chargeID]; ok {
		g.outcomes[chargeID] = outcome
	}
}
