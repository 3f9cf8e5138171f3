package presence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/identity"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

const updateTimeout = 5 * time.Second

// Updater issues fire-and-forget presence writes. Callers never wait on the
// store and never see its errors.
type Updater struct {
	store     Store
	validator identity.Validator
	tracker   *Tracker
	logger    zerolog.Logger
}

// NewUpdater creates an Updater over the given presence store
func NewUpdater(store Store, validator identity.Validator, tracker *Tracker, logger zerolog.Logger) *Updater {
	return &Updater{
		store:     store,
		validator: validator,
		tracker:   tracker,
		logger:    logger.With().Str("component", "presence").Logger(),
	}
}

// SetStatus asynchronously sets an agent's status. Invalid identities are
// logged and dropped.
func (u *Updater) SetStatus(ident string, status types.AgentStatus) {
	if !u.validator.Valid(ident) {
		u.logger.Warn().Str("staff_id", ident).Msg("invalid identity on status update, skipping")
		return
	}

	// Going offline ends liveness tracking; anything else counts as a sign
	// of life.
	if status == types.StatusOffline {
		u.tracker.Remove(ident)
	} else {
		u.tracker.Touch(ident)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()

		if err := u.store.UpdateAgentStatus(ctx, ident, status); err != nil {
			u.logger.Error().Err(err).
				Str("staff_id", ident).
				Str("status", string(status)).
				Msg("presence status update failed")
		}
	}()
}

// Heartbeat refreshes an agent's last-active timestamp. Invalid identities
// are logged, not surfaced, so a malformed heartbeat never kills the
// transport connection.
func (u *Updater) Heartbeat(ident string) {
	if !u.validator.Valid(ident) {
		u.logger.Warn().Str("staff_id", ident).Msg("heartbeat with invalid identity, ignoring")
		return
	}

	u.tracker.Touch(ident)

	now := time.Now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()

		if err := u.store.UpdateLastActive(ctx, ident, now); err != nil {
			u.logger.Error().Err(err).Str("staff_id", ident).Msg("presence heartbeat update failed")
		}
	}()
}

// Forget stops liveness tracking for an identity (on disconnect)
func (u *Updater) Forget(ident string) {
	u.tracker.Remove(ident)
}

// Tracker records the last heartbeat seen per staff identity so the sweeper
// can spot agents whose connection died without a clean disconnect.
type Tracker struct {
	lastBeat map[string]time.Time
	mu       sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{lastBeat: make(map[string]time.Time)}
}

func (t *Tracker) Touch(ident string) {
	t.mu.Lock()
	t.lastBeat[ident] = time.Now()
	t.mu.Unlock()
}

func (t *Tracker) Remove(ident string) {
	t.mu.Lock()
	delete(t.lastBeat, ident)
	t.mu.Unlock()
}

// StaleAndForget returns identities with no heartbeat within window and stops
// tracking them, so each stale agent is reported once.
func (t *Tracker) StaleAndForget(window time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var stale []string
	for ident, beat := range t.lastBeat {
		if beat.Before(cutoff) {
			stale = append(stale, ident)
			delete(t.lastBeat, ident)
		}
	}
	return stale
}
