package repository

import (
	"context"

	"hotspot-pix-portal/internal/domain/model"
)

// SettingsRepository persists the admin-managed router and payment
// configuration as single whole-record documents.
type SettingsRepository interface {
	LoadRouter(ctx context.Context) (*model.RouterSettings, error)
	SaveRouter(ctx context.Context, s *model.RouterSettings) error
	LoadPayment(ctx context.Context) (*model.PaymentSettings, error)
	SavePayment(ctx context.Context, s *model.PaymentSettings) error
}
