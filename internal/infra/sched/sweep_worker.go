package sched

import (
	"context"
	"time"

	"hotspot-pix-portal/internal/domain/ports/repository"
	"hotspot-pix-portal/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SweepWorker periodically evicts terminal sessions past the retention
// window. Non-terminal sessions are never touched.
type SweepWorker struct {
	interval  time.Duration
	retention time.Duration
	store     repository.SessionStore
	log       *zerolog.Logger
}

func NewSweepWorker(interval, retention time.Duration, store repository.SessionStore, logger *zerolog.Logger) *SweepWorker {
	sweepLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval:  interval,
		retention: retention,
		store:     store,
		log:       &sweepLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-w.retention)
			n, err := w.store.DeleteTerminalBefore(ctx, cutoff)
			if err != nil {
				w.log.Error().Err(err).Msg("sweep worker error")
			}
			if n > 0 {
				metrics.AddSessionsSwept(n)
				w.log.Info().Int("count", n).Msg("terminal sessions evicted")
			}
		}
	}
}
