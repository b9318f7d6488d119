package repository

import (
	"context"
	"time"

	"hotspot-pix-portal/internal/domain/model"
)

// SessionStore keeps voucher sessions indexed both by session id and by
// charge id. The charge index entry is written in the same atomic step as
// the insert, so a charge id maps back to exactly one session.
type SessionStore interface {
	// Save inserts a new session and registers its charge id. Returns
	// domain.ErrAlreadyExists if either id is already taken.
	Save(ctx context.Context, s *model.VoucherSession) error
	// Update replaces the stored record for an existing session.
	Update(ctx context.Context, s *model.VoucherSession) error
	FindByID(ctx context.Context, id string) (*model.VoucherSession, error)
	FindByChargeID(ctx context.Context, chargeID string) (*model.VoucherSession, error)
	// ListPendingOlderThan returns pending sessions created before cutoff,
	// oldest first, capped at limit; limit 0 means no cap.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.VoucherSession, error)
	// CountByStatus returns session totals per status plus completed
	// revenue in cents, for the admin dashboard.
	CountByStatus(ctx context.Context) (map[model.SessionStatus]int, int64, error)
	// DeleteTerminalBefore evicts terminal sessions whose last update is
	// older than cutoff and returns how many were removed. Non-terminal
	// sessions are never touched.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// SessionLocker serializes transitions of a single session. Acquire blocks
// (bounded by ctx and the implementation's retry budget) until the session
// lock is held, returning a token that must be passed back to Release.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID string) (token string, err error)
	Release(ctx context.Context, sessionID, token string) error
}
