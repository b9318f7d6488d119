package usecase

import (
	"context"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"
)

var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages the catalog of purchasable access plans. Edits are
// whole-record replacements validated before acceptance; they never touch
// plans already snapshotted into in-flight sessions.
type PlanUseCase interface {
	Create(ctx context.Context, id, label string, durationMinutes int, priceCents int64) (*model.AccessPlan, error)
	Update(ctx context.Context, id, label string, durationMinutes int, priceCents int64) (*model.AccessPlan, error)
	Get(ctx context.Context, id string) (*model.AccessPlan, error)
	List(ctx context.Context) ([]*model.AccessPlan, error)
	Delete(ctx context.Context, id string) error
}

type planUC struct {
	repo repository.AccessPlanRepository
}

func NewPlanUseCase(repo repository.AccessPlanRepository) *planUC {
	return &planUC{repo: repo}
}

func (uc *planUC) Create(ctx context.Context, id, label string, durationMinutes int, priceCents int64) (*model.AccessPlan, error) {
	plan, err := model.NewAccessPlan(id, label, durationMinutes, priceCents)
	if err != nil {
		return nil, err
	}
	if existing, err := uc.repo.FindByID(ctx, id); err == nil && !existing.IsZero() {
		return nil, domain.ErrAlreadyExists
	}
	if err := uc.repo.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *planUC) Update(ctx context.Context, id, label string, durationMinutes int, priceCents int64) (*model.AccessPlan, error) {
	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := model.NewAccessPlan(id, label, durationMinutes, priceCents)
	if err != nil {
		return nil, err
	}
	plan.CreatedAt = existing.CreatedAt
	if err := uc.repo.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *planUC) Get(ctx context.Context, id string) (*model.AccessPlan, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *planUC) List(ctx context.Context) ([]*model.AccessPlan, error) {
	return uc.repo.ListAll(ctx)
}

func (uc *planUC) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}
