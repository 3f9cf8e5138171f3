package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/storage"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

func newTestService() (*Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewService(store, zerolog.Nop()), store
}

func TestPostUserMessage(t *testing.T) {
	svc, _ := newTestService()
	sender := &types.Connection{ID: "c1", Kind: types.KindUser, DisplayName: "Alice"}

	msg, err := svc.PostUserMessage(context.Background(), sender, "hello", "")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if msg.Role != types.RoleUser {
		t.Errorf("expected role user, got %s", msg.Role)
	}
	if msg.ConnectionID != "c1" {
		t.Errorf("expected message correlated to sender connection, got %s", msg.ConnectionID)
	}
	// Display name falls back to the registry entry
	if msg.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %s", msg.DisplayName)
	}
	if msg.ID == "" || msg.SentAt.IsZero() {
		t.Error("expected generated id and timestamp")
	}

	history, err := svc.History(context.Background(), "c1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 persisted message, got %d", len(history))
	}
}

func TestPostUserMessageRejectsUnregistered(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.PostUserMessage(context.Background(), nil, "hello", ""); !errors.Is(err, ErrUnregisteredSender) {
		t.Errorf("expected ErrUnregisteredSender for nil sender, got %v", err)
	}

	anon := &types.Connection{ID: "c1", Kind: types.KindAnonymous}
	if _, err := svc.PostUserMessage(context.Background(), anon, "hello", ""); !errors.Is(err, ErrUnregisteredSender) {
		t.Errorf("expected ErrUnregisteredSender for anonymous sender, got %v", err)
	}

	staff := &types.Connection{ID: "c2", Kind: types.KindStaff}
	if _, err := svc.PostUserMessage(context.Background(), staff, "hello", ""); !errors.Is(err, ErrUnregisteredSender) {
		t.Errorf("expected ErrUnregisteredSender for staff sender, got %v", err)
	}

	history, _ := svc.History(context.Background(), "c1")
	if len(history) != 0 {
		t.Error("dropped messages must not be persisted")
	}
}

func TestPostStaffMessage(t *testing.T) {
	svc, _ := newTestService()

	// The target does not need to be connected; the record is kept anyway.
	msg, err := svc.PostStaffMessage(context.Background(), "u1", "how can I help", "Dr. B")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if msg.Role != types.RoleStaff {
		t.Errorf("expected role staff, got %s", msg.Role)
	}
	if msg.ConnectionID != "u1" {
		t.Errorf("expected message correlated to target connection, got %s", msg.ConnectionID)
	}

	history, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 || history[0].DisplayName != "Dr. B" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestHistoryInterleavesBothSides(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sender := &types.Connection{ID: "u1", Kind: types.KindUser, DisplayName: "Alice"}

	svc.PostUserMessage(ctx, sender, "first", "")
	svc.PostStaffMessage(ctx, "u1", "second", "S")
	svc.PostUserMessage(ctx, sender, "third", "")

	history, err := svc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	if history[0].Text != "first" || history[1].Text != "second" || history[2].Text != "third" {
		t.Errorf("unexpected order: %v", []string{history[0].Text, history[1].Text, history[2].Text})
	}
}
