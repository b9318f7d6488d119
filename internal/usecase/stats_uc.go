package usecase

import (
	"context"

	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"
	"hotspot-pix-portal/internal/infra/metrics"
)

var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase serves the admin dashboard cards.
type StatsUseCase interface {
	// Totals returns session counts by status and completed revenue in cents.
	Totals(ctx context.Context) (map[model.SessionStatus]int, int64, error)
}

type statsUC struct {
	sessions repository.SessionStore
}

func NewStatsUseCase(sessions repository.SessionStore) *statsUC {
	return &statsUC{sessions: sessions}
}

func (uc *statsUC) Totals(ctx context.Context) (map[model.SessionStatus]int, int64, error) {
	counts, revenue, err := uc.sessions.CountByStatus(ctx)
	if err != nil {
		return nil, 0, err
	}
	metrics.SetSessionsByStatus(counts)
	return counts, revenue, nil
}
