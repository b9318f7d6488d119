package adapter

import "context"

// ChargeOutcome is the provider's verdict on a single PIX charge.
type ChargeOutcome string

const (
	ChargeOutcomeSuccess ChargeOutcome = "success"
	ChargeOutcomeFailure ChargeOutcome = "failure"
	ChargeOutcomePending ChargeOutcome = "pending"
)

// Charge is the provider-side representation of one QR-code payment request.
type Charge struct {
	ID        string // provider payment id, correlates inbound notifications
	QRPayload string // PIX copy-and-paste (EMV) payload to render as a QR code
}

// PaymentGateway is the port for PIX payment providers.
type PaymentGateway interface {
	Name() string

	// IssueCharge creates a payment intent for amountCents and returns the
	// provider charge id plus the QR payload to show the customer.
	IssueCharge(ctx context.Context, amountCents int64, description string) (Charge, error)

	// LookupCharge fetches the current outcome of a charge. Webhook
	// deliveries carry only the payment id, so confirmation always reads
	// the status back from the provider.
	LookupCharge(ctx context.Context, chargeID string) (ChargeOutcome, error)
}
