package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the durable session store. A UNIQUE constraint on
// charge_id makes the charge index one-to-one and written atomically
// with the insert.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, plan_id, plan_label, duration_minutes, price_cents,
charge_id, qr_payload, status, created_at, expires_at, updated_at, activated_at`

func (r *SessionRepo) Save(ctx context.Context, s *model.VoucherSession) error {
	const sql = `
INSERT INTO voucher_sessions (` + sessionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);
`
	_, err := r.pool.Exec(ctx, sql,
		s.ID, s.PlanID, s.PlanLabel, s.DurationMinutes, s.PriceCents,
		s.ChargeID, s.QRPayload, s.Status, s.CreatedAt, s.ExpiresAt, s.UpdatedAt, s.ActivatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("Save session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Update(ctx context.Context, s *model.VoucherSession) error {
	const sql = `
UPDATE voucher_sessions
   SET status = $2, updated_at = $3, activated_at = $4
 WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, sql, s.ID, s.Status, time.Now(), s.ActivatedAt)
	if err != nil {
		return fmt.Errorf("Update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.VoucherSession, error) {
	const sql = `SELECT ` + sessionColumns + ` FROM voucher_sessions WHERE id = $1;`
	return r.scanOne(r.pool.QueryRow(ctx, sql, id), "FindByID")
}

func (r *SessionRepo) FindByChargeID(ctx context.Context, chargeID string) (*model.VoucherSession, error) {
	const sql = `SELECT ` + sessionColumns + ` FROM voucher_sessions WHERE charge_id = $1;`
	return r.scanOne(r.pool.QueryRow(ctx, sql, chargeID), "FindByChargeID")
}

func (r *SessionRepo) scanOne(row pgx.Row, op string) (*model.VoucherSession, error) {
	var s model.VoucherSession
	err := row.Scan(&s.ID, &s.PlanID, &s.PlanLabel, &s.DurationMinutes, &s.PriceCents,
		&s.ChargeID, &s.QRPayload, &s.Status, &s.CreatedAt, &s.ExpiresAt, &s.UpdatedAt, &s.ActivatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s session: %w", op, err)
	}
	return &s, nil
}

func (r *SessionRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.VoucherSession, error) {
	const sql = `
SELECT ` + sessionColumns + `
  FROM voucher_sessions
 WHERE status = $1 AND created_at < $2
 ORDER BY created_at
 LIMIT NULLIF($3, 0);
`
	rows, err := r.pool.Query(ctx, sql, model.SessionStatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("ListPendingOlderThan: %w", err)
	}
	defer rows.Close()
	var out []*model.VoucherSession
	for rows.Next() {
		var s model.VoucherSession
		if err := rows.Scan(&s.ID, &s.PlanID, &s.PlanLabel, &s.DurationMinutes, &s.PriceCents,
			&s.ChargeID, &s.QRPayload, &s.Status, &s.CreatedAt, &s.ExpiresAt, &s.UpdatedAt, &s.ActivatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *SessionRepo) CountByStatus(ctx context.Context) (map[model.SessionStatus]int, int64, error) {
	const sql = `
SELECT status,
       COUNT(*),
       COALESCE(SUM(price_cents) FILTER (WHERE status = 'completed'), 0)
  FROM voucher_sessions
 GROUP BY status;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, 0, fmt.Errorf("CountByStatus: %w", err)
	}
	defer rows.Close()
	counts := make(map[model.SessionStatus]int)
	var revenue int64
	for rows.Next() {
		var status model.SessionStatus
		var n int
		var rev int64
		if err := rows.Scan(&status, &n, &rev); err != nil {
			return nil, 0, err
		}
		counts[status] = n
		revenue += rev
	}
	return counts, revenue, rows.Err()
}

func (r *SessionRepo) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	const sql = `
DELETE FROM voucher_sessions
 WHERE status IN ($1, $2) AND updated_at < $3;
`
	tag, err := r.pool.Exec(ctx, sql, model.SessionStatusCompleted, model.SessionStatusExpired, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteTerminalBefore: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
