package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo persists the two admin settings documents as single rows
// keyed by section name.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) LoadRouter(ctx context.Context) (*model.RouterSettings, error) {
	const sql = `
SELECT address, username, password, updated_at
  FROM portal_settings_router
 WHERE section = 'router';
`
	var s model.RouterSettings
	err := r.pool.QueryRow(ctx, sql).Scan(&s.Address, &s.Username, &s.Password, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("LoadRouter: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) SaveRouter(ctx context.Context, s *model.RouterSettings) error {
	const sql = `
INSERT INTO portal_settings_router (section, address, username, password, updated_at)
VALUES ('router', $1, $2, $3, $4)
ON CONFLICT (section) DO UPDATE
  SET address = EXCLUDED.address,
      username = EXCLUDED.username,
      password = EXCLUDED.password,
      updated_at = EXCLUDED.updated_at;
`
	if _, err := r.pool.Exec(ctx, sql, s.Address, s.Username, s.Password, time.Now()); err != nil {
		return fmt.Errorf("SaveRouter: %w", err)
	}
	return nil
}

func (r *SettingsRepo) LoadPayment(ctx context.Context) (*model.PaymentSettings, error) {
	const sql = `
SELECT pix_key, webhook_secret, updated_at
  FROM portal_settings_payment
 WHERE section = 'payment';
`
	var s model.PaymentSettings
	err := r.pool.QueryRow(ctx, sql).Scan(&s.PixKey, &s.WebhookSecret, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("LoadPayment: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) SavePayment(ctx context.Context, s *model.PaymentSettings) error {
	const sql = `
INSERT INTO portal_settings_payment (section, pix_key, webhook_secret, updated_at)
VALUES ('payment', $1, $2, $3)
ON CONFLICT (section) DO UPDATE
  SET pix_key = EXCLUDED.pix_key,
      webhook_secret = EXCLUDED.webhook_secret,
      updated_at = EXCLUDED.updated_at;
`
	if _, err := r.pool.Exec(ctx, sql, s.PixKey, s.WebhookSecret, time.Now()); err != nil {
		return fmt.Errorf("SavePayment: %w", err)
	}
	return nil
}
