package postgres

import (
	"context"
	"errors"
	"fmt"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.AccessPlanRepository = (*PlanRepo)(nil)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

func (r *PlanRepo) Save(ctx context.Context, plan *model.AccessPlan) error {
	const sql = `
INSERT INTO access_plans (id, label, duration_minutes, price_cents, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
  SET label            = EXCLUDED.label,
      duration_minutes = EXCLUDED.duration_minutes,
      price_cents      = EXCLUDED.price_cents;
`
	_, err := r.pool.Exec(ctx, sql,
		plan.ID, plan.Label, plan.DurationMinutes, plan.PriceCents, plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Save plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) FindByID(ctx context.Context, id string) (*model.AccessPlan, error) {
	const sql = `
SELECT id, label, duration_minutes, price_cents, created_at
  FROM access_plans
 WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, sql, id)
	var p model.AccessPlan
	if err := row.Scan(&p.ID, &p.Label, &p.DurationMinutes, &p.PriceCents, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID plan: %w", err)
	}
	return &p, nil
}

func (r *PlanRepo) ListAll(ctx context.Context) ([]*model.AccessPlan, error) {
	const sql = `
SELECT id, label, duration_minutes, price_cents, created_at
  FROM access_plans
 ORDER BY created_at;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("ListAll plans: %w", err)
	}
	defer rows.Close()
	var out []*model.AccessPlan
	for rows.Next() {
		var p model.AccessPlan
		if err := rows.Scan(&p.ID, &p.Label, &p.DurationMinutes, &p.PriceCents, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM access_plans WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("Delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
