package sched

import (
	"context"
	"time"

	"hotspot-pix-portal/internal/domain/ports/adapter"
	"hotspot-pix-portal/internal/domain/ports/repository"
	"hotspot-pix-portal/internal/usecase"

	"github.com/rs/zerolog"
)

// ChargeReconciler periodically scans stale pending sessions and asks the
// gateway for each charge's outcome, covering webhooks that were lost or
// arrived while the process was down. Results funnel through
// HandleNotification, so every state machine guarantee still applies.
type ChargeReconciler struct {
	uc         usecase.SessionUseCase
	store      repository.SessionStore
	gateway    adapter.PaymentGateway
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending session must be to recheck
	log        *zerolog.Logger
}

func NewChargeReconciler(uc usecase.SessionUseCase, store repository.SessionStore, gateway adapter.PaymentGateway, interval, staleAfter time.Duration, logger *zerolog.Logger) *ChargeReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = time.Minute
	}
	recLog := logger.With().Str("component", "ChargeReconciler").Logger()
	return &ChargeReconciler{
		uc:         uc,
		store:      store,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &recLog,
	}
}

func (w *ChargeReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting charge reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping charge reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ChargeReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.store.ListPendingOlderThan(ctx, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending error")
		return
	}
	for _, sess := range pending {
		outcome, err := w.gateway.LookupCharge(ctx, sess.ChargeID)
		if err != nil {
			w.log.Warn().Err(err).Str("session_id", sess.ID).Str("charge_id", sess.ChargeID).Msg("charge lookup failed")
			continue
		}
		if outcome == adapter.ChargeOutcomePending {
			continue
		}
		if err := w.uc.HandleNotification(ctx, sess.ChargeID, outcome); err != nil {
			w.log.Warn().Err(err).Str("session_id", sess.ID).Msg("reconcile failed")
			continue
		}
		w.log.Info().Str("session_id", sess.ID).Str("outcome", string(outcome)).Msg("session reconciled")
	}
}
