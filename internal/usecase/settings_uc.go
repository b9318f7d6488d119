package usecase

import (
	"context"

	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"
)

var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase is the single validated update path for the
// admin-managed router and payment configuration.
type SettingsUseCase interface {
	Router(ctx context.Context) (*model.RouterSettings, error)
	UpdateRouter(ctx context.Context, s *model.RouterSettings) error
	Payment(ctx context.Context) (*model.PaymentSettings, error)
	UpdatePayment(ctx context.Context, s *model.PaymentSettings) error
}

type settingsUC struct {
	repo repository.SettingsRepository
}

func NewSettingsUseCase(repo repository.SettingsRepository) *settingsUC {
	return &settingsUC{repo: repo}
}

func (uc *settingsUC) Router(ctx context.Context) (*model.RouterSettings, error) {
	return uc.repo.LoadRouter(ctx)
}

func (uc *settingsUC) UpdateRouter(ctx context.Context, s *model.RouterSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return uc.repo.SaveRouter(ctx, s)
}

func (uc *settingsUC) Payment(ctx context.Context) (*model.PaymentSettings, error) {
	return uc.repo.LoadPayment(ctx)
}

func (uc *settingsUC) UpdatePayment(ctx context.Context, s *model.PaymentSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return uc.repo.SavePayment(ctx, s)
}
