// Package presence pushes staff availability to the external presence store.
// Presence is advisory: every write is best-effort and failures are logged,
// never surfaced to the connection that triggered them.
package presence

import (
	"context"
	"time"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// Store is the external presence store's interface
type Store interface {
	UpdateAgentStatus(ctx context.Context, identity string, status types.AgentStatus) error
	UpdateLastActive(ctx context.Context, identity string, t time.Time) error
}

// NoopStore is used when no presence backend is configured
type NoopStore struct{}

func NewNoopStore() NoopStore { return NoopStore{} }

func (NoopStore) UpdateAgentStatus(context.Context, string, types.AgentStatus) error { return nil }
func (NoopStore) UpdateLastActive(context.Context, string, time.Time) error          { return nil }
