package memstore

import (
	"context"
	"sync"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"
)

var _ repository.AccessPlanRepository = (*PlanRepo)(nil)

// PlanRepo keeps the plan catalog in memory, preserving insertion order.
type PlanRepo struct {
	mu    sync.RWMutex
	byID  map[string]*model.AccessPlan
	order []string
}

func NewPlanRepo() *PlanRepo {
	return &PlanRepo{byID: make(map[string]*model.AccessPlan)}
}

func (r *PlanRepo) Save(ctx context.Context, plan *model.AccessPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	if _, ok := r.byID[plan.ID]; !ok {
		r.order = append(r.order, plan.ID)
	}
	r.byID[plan.ID] = &cp
	return nil
}

func (r *PlanRepo) FindByID(ctx context.Context, id string) (*model.AccessPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PlanRepo) ListAll(ctx context.Context) ([]*model.AccessPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.AccessPlan, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// SettingsRepo stores the admin-managed settings in memory for dev mode.
type SettingsRepo struct {
	mu      sync.RWMutex
	router  *model.RouterSettings
	payment *model.PaymentSettings
}

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

func NewSettingsRepo() *SettingsRepo { return &SettingsRepo{} }

func (r *SettingsRepo) LoadRouter(ctx context.Context) (*model.RouterSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.router == nil {
		return nil, domain.ErrNotFound
	}
	cp := *r.router
	return &cp, nil
}

func (r *SettingsRepo) SaveRouter(ctx context.Context, s *model.RouterSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.UpdatedAt = time.Now()
	r.router = &cp
	return nil
}

func (r *SettingsRepo) LoadPayment(ctx context.Context) (*model.PaymentSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.payment == nil {
		return nil, domain.ErrNotFound
	}
	cp := *r.payment
	return &cp, nil
}

func (r *SettingsRepo) SavePayment(ctx context.Context, s *model.PaymentSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.UpdatedAt = time.Now()
	r.payment = &cp
	return nil
}
