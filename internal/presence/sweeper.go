package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// Sweeper periodically marks staff offline when their heartbeats stop
// arriving, covering connections that died without a clean close.
type Sweeper struct {
	updater  *Updater
	tracker  *Tracker
	interval time.Duration
	window   time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a Sweeper
func NewSweeper(updater *Updater, tracker *Tracker, interval, window time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		updater:  updater,
		tracker:  tracker,
		interval: interval,
		window:   window,
		logger:   logger.With().Str("component", "presence-sweeper").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.interval).
		Dur("window", s.window).
		Msg("presence sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("presence sweeper stopped")
			return

		case <-ticker.C:
			for _, ident := range s.tracker.StaleAndForget(s.window) {
				s.logger.Warn().Str("staff_id", ident).Msg("no heartbeat within window, marking offline")
				s.updater.SetStatus(ident, types.StatusOffline)
			}
		}
	}
}
