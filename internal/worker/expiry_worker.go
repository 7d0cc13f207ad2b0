package worker

import (
	"context"
	"time"

	"github.com/acadio/acadio-backend/internal/service"
	"github.com/rs/zerolog"
)

const SweepBatchSize = 100

// ExpiryWorker is the backstop for lazy session expiry. Sessions whose
// deadline passes are normally auto-submitted on the student's next request;
// this worker catches the ones whose student simply walked away, so results
// and retake cooldowns do not wait on a client that never returns.
type ExpiryWorker struct {
	sessions *service.SessionService
	interval time.Duration
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker sweeping at the given interval.
func NewExpiryWorker(sessions *service.SessionService, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	// Drain in batches: one long-expired backlog should not take multiple
	// sweep intervals to clear.
	for {
		closed, err := w.sessions.SweepExpired(ctx, SweepBatchSize)
		if err != nil {
			w.log.Error().Err(err).Msg("Sweep failed")
			return
		}
		if closed > 0 {
			w.log.Info().Int("closed", closed).Msg("Expired sessions auto-submitted")
		}
		if closed < SweepBatchSize {
			return
		}
	}
}
