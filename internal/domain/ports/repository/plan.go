package repository

import (
	"context"

	"hotspot-pix-portal/internal/domain/model"
)

// AccessPlanRepository persists the catalog of purchasable plans.
type AccessPlanRepository interface {
	// Save inserts or replaces a whole plan record.
	Save(ctx context.Context, plan *model.AccessPlan) error
	FindByID(ctx context.Context, id string) (*model.AccessPlan, error)
	// ListAll returns plans in insertion order.
	ListAll(ctx context.Context) ([]*model.AccessPlan, error)
	Delete(ctx context.Context, id string) error
}
