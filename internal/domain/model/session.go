package model

import "time"

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"    // charge issued, QR shown, awaiting payment
	SessionStatusProcessing SessionStatus = "processing" // payment confirmed, activation in flight
	SessionStatusCompleted  SessionStatus = "completed"  // access granted (terminal)
	SessionStatusExpired    SessionStatus = "expired"    // unpaid past TTL or payment failed (terminal)
)

// IsTerminal reports whether no further transitions are permitted.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusExpired
}

// VoucherSession is one purchase attempt for time-limited network access.
// Plan fields are snapshotted at creation so later catalog edits never
// retroactively change an in-flight session.
type VoucherSession struct {
	ID              string // ULID
	PlanID          string
	PlanLabel       string
	DurationMinutes int
	PriceCents      int64
	ChargeID        string // provider payment id; immutable once assigned, unique per session
	QRPayload       string // PIX copy-and-paste payload issued by the provider
	Status          SessionStatus
	CreatedAt       time.Time
	ExpiresAt       time.Time
	UpdatedAt       time.Time
	ActivatedAt     *time.Time // set exactly once, when provisioning succeeds
}

// NewVoucherSession snapshots the plan into a fresh pending session.
func NewVoucherSession(id string, plan *AccessPlan, chargeID, qrPayload string, ttl time.Duration) *VoucherSession {
	now := time.Now()
	return &VoucherSession{
		ID:              id,
		PlanID:          plan.ID,
		PlanLabel:       plan.Label,
		DurationMinutes: plan.DurationMinutes,
		PriceCents:      plan.PriceCents,
		ChargeID:        chargeID,
		QRPayload:       qrPayload,
		Status:          SessionStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
		UpdatedAt:       now,
	}
}

// TimeRemaining returns how long the QR stays payable; zero once the
// session left Pending or the deadline passed.
func (s *VoucherSession) TimeRemaining(now time.Time) time.Duration {
	if s.Status != SessionStatusPending {
		return 0
	}
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
