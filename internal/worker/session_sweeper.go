// Package worker holds the background loops that run beside the HTTP
// surface.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/service"
)

// SessionSweeper periodically discards composition sessions that have
// idled past their TTL, so abandoned wizards do not accumulate.
type SessionSweeper struct {
	compose  *service.ComposeService
	interval time.Duration
	log      zerolog.Logger
}

// NewSessionSweeper creates a new SessionSweeper.
func NewSessionSweeper(compose *service.ComposeService, interval time.Duration, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		compose:  compose,
		interval: interval,
		log:      log.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine; it exits when ctx is
// cancelled.
func (w *SessionSweeper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if swept := w.compose.SweepExpired(); swept > 0 {
				w.log.Info().Int("swept", swept).Msg("Expired composition sessions discarded")
			}
		}
	}
}
