// Package messaging relays chat between user connections and the staff pool.
// Messages are append-only; nothing here ever mutates a stored message.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/storage"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// ErrUnregisteredSender means the sending connection never registered as a
// user. The message is dropped without persistence; callers log and move on.
var ErrUnregisteredSender = errors.New("sender connection is not a registered user")

// Service persists chat messages and shapes them for fan-out
type Service struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewService creates a messaging Service
func NewService(store storage.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "messaging").Logger(),
	}
}

// PostUserMessage persists a chat message from a registered user connection.
// sender is the sender's registry entry; unregistered senders are dropped.
func (s *Service) PostUserMessage(ctx context.Context, sender *types.Connection, text, displayName string) (*types.ChatMessage, error) {
	if sender == nil || sender.Kind != types.KindUser {
		return nil, ErrUnregisteredSender
	}

	if displayName == "" {
		displayName = sender.DisplayName
	}

	msg := types.ChatMessage{
		ID:           uuid.New().String(),
		Text:         text,
		Role:         types.RoleUser,
		ConnectionID: sender.ID,
		DisplayName:  displayName,
		SentAt:       time.Now(),
	}

	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	s.logger.Debug().
		Str("connection_id", sender.ID).
		Str("message_id", msg.ID).
		Msg("user message stored")
	return &msg, nil
}

// PostStaffMessage persists a staff reply correlated to the target user
// connection. The target does not have to be connected; delivery is
// best-effort and the record is kept regardless.
func (s *Service) PostStaffMessage(ctx context.Context, targetConnID, text, staffName string) (*types.ChatMessage, error) {
	msg := types.ChatMessage{
		ID:           uuid.New().String(),
		Text:         text,
		Role:         types.RoleStaff,
		ConnectionID: targetConnID,
		DisplayName:  staffName,
		SentAt:       time.Now(),
	}

	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist staff message: %w", err)
	}

	s.logger.Debug().
		Str("connection_id", targetConnID).
		Str("message_id", msg.ID).
		Msg("staff message stored")
	return &msg, nil
}

// History returns all stored messages correlated to a user connection id
func (s *Service) History(ctx context.Context, connID string) ([]types.ChatMessage, error) {
	msgs, err := s.store.ListMessagesForConnection(ctx, connID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}
	return msgs, nil
}
