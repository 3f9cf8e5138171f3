package storage

import (
	"context"
	"errors"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConditionFailed is returned by UpdateCallRequestIfStatus when the
	// stored status no longer matches the expected one
	ErrConditionFailed = errors.New("conditional update failed")
)

// Store defines the persistence interface for call requests and messages
type Store interface {
	CreateCallRequest(ctx context.Context, call types.CallRequest) error
	GetCallRequest(ctx context.Context, callID string) (*types.CallRequest, error)

	// UpdateCallRequest replaces the stored record unconditionally
	UpdateCallRequest(ctx context.Context, call types.CallRequest) error

	// UpdateCallRequestIfStatus replaces the stored record only when its
	// current status equals expect. ErrConditionFailed on mismatch,
	// ErrNotFound when absent.
	UpdateCallRequestIfStatus(ctx context.Context, call types.CallRequest, expect types.CallStatus) error

	DeleteCallRequest(ctx context.Context, callID string) error
	ListCallRequestsByStatus(ctx context.Context, statuses ...types.CallStatus) ([]types.CallRequest, error)

	SaveMessage(ctx context.Context, msg types.ChatMessage) error
	ListMessagesForConnection(ctx context.Context, connID string) ([]types.ChatMessage, error)
}
