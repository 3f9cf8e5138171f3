// Package callflow owns the call request lifecycle:
//
//	pending -> assigned -> in_progress -> awaiting_feedback -> completed
//	assigned -> pending (release)
//	any      -> deleted (remove)
//
// Accept is the only transition guarded by a conditional update; two staff
// racing for the same pending call resolve through the store, not through
// event ordering. Start, End, Release and SubmitFeedback deliberately do not
// check the prior status: the staff UI is trusted to drive them in order.
package callflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/presence"
	"github.com/GB163/student-led-initiative-sub002/internal/storage"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// Service runs call request state transitions against the store
type Service struct {
	store    storage.Store
	presence *presence.Updater
	logger   zerolog.Logger
}

// NewService creates a call flow Service
func NewService(store storage.Store, presence *presence.Updater, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		presence: presence,
		logger:   logger.With().Str("component", "callflow").Logger(),
	}
}

// SubmitDetails carries the requester's contact info for a new call request
type SubmitDetails struct {
	Name               string
	Phone              string
	Language           string
	BestTime           string
	Notes              string
	OriginConnectionID string
}

// Submit creates a new pending call request and persists it
func (s *Service) Submit(ctx context.Context, details SubmitDetails) (*types.CallRequest, error) {
	call := types.CallRequest{
		ID:                 uuid.New().String(),
		Name:               details.Name,
		Phone:              details.Phone,
		Language:           details.Language,
		BestTime:           details.BestTime,
		Notes:              details.Notes,
		OriginConnectionID: details.OriginConnectionID,
		Status:             types.CallStatusPending,
		CreatedAt:          time.Now(),
	}

	if err := s.store.CreateCallRequest(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to persist call request: %w", err)
	}

	s.logger.Info().
		Str("call_id", call.ID).
		Str("connection_id", call.OriginConnectionID).
		Msg("call request submitted")
	return &call, nil
}

// Accept claims a pending call for a staff member. The conditional update on
// status=pending is what makes exactly one of two concurrent accepts win.
func (s *Service) Accept(ctx context.Context, callID, staffIdentity, staffName string) (*types.CallRequest, error) {
	if callID == "" {
		return nil, &ValidationError{Field: "callId", Reason: "required"}
	}
	if staffIdentity == "" {
		return nil, &ValidationError{Field: "staffId", Reason: "required"}
	}

	call, err := s.store.GetCallRequest(ctx, callID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCallUnavailable
		}
		return nil, fmt.Errorf("failed to load call request: %w", err)
	}
	if call.Status != types.CallStatusPending {
		return nil, ErrCallUnavailable
	}

	now := time.Now()
	call.Status = types.CallStatusAssigned
	call.AssignedTo = staffIdentity
	call.AssignedStaffName = staffName
	call.AssignedAt = &now

	if err := s.store.UpdateCallRequestIfStatus(ctx, *call, types.CallStatusPending); err != nil {
		if errors.Is(err, storage.ErrConditionFailed) || errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCallUnavailable
		}
		return nil, fmt.Errorf("failed to assign call request: %w", err)
	}

	s.presence.SetStatus(staffIdentity, types.StatusBusy)

	s.logger.Info().
		Str("call_id", callID).
		Str("staff_id", staffIdentity).
		Msg("call request accepted")
	return call, nil
}

// Start marks a call as running and records the start timestamp
func (s *Service) Start(ctx context.Context, callID string) (*types.CallRequest, error) {
	call, err := s.load(ctx, callID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	call.Status = types.CallStatusInProgress
	call.StartedAt = &now

	if err := s.save(ctx, call); err != nil {
		return nil, err
	}

	s.logger.Info().Str("call_id", callID).Msg("call started")
	return call, nil
}

// End finishes a call, derives its duration and frees the staff member
func (s *Service) End(ctx context.Context, callID, staffIdentity string) (*types.CallRequest, error) {
	call, err := s.load(ctx, callID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	call.Status = types.CallStatusAwaitingFeedback
	call.EndedAt = &now
	call.CallDuration = 0
	if call.StartedAt != nil {
		call.CallDuration = int64(now.Sub(*call.StartedAt).Seconds())
	}

	if err := s.save(ctx, call); err != nil {
		return nil, err
	}

	if staffIdentity != "" {
		s.presence.SetStatus(staffIdentity, types.StatusAvailable)
	}

	s.logger.Info().
		Str("call_id", callID).
		Int64("duration_secs", call.CallDuration).
		Msg("call ended")
	return call, nil
}

// Release returns an assigned call to the pending pool, clearing the
// assignment. Used for explicit rejection and administrative requeue.
func (s *Service) Release(ctx context.Context, callID, staffIdentity string) (*types.CallRequest, error) {
	call, err := s.load(ctx, callID)
	if err != nil {
		return nil, err
	}

	call.Status = types.CallStatusPending
	call.AssignedTo = ""
	call.AssignedStaffName = ""
	call.AssignedAt = nil

	if err := s.save(ctx, call); err != nil {
		return nil, err
	}

	if staffIdentity != "" {
		s.presence.SetStatus(staffIdentity, types.StatusAvailable)
	}

	s.logger.Info().
		Str("call_id", callID).
		Str("staff_id", staffIdentity).
		Msg("call request released back to pending")
	return call, nil
}

// SubmitFeedback stores the requester's post-call feedback and completes the
// call
func (s *Service) SubmitFeedback(ctx context.Context, callID string, rating int, suggestion string) (*types.CallRequest, error) {
	call, err := s.load(ctx, callID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	call.Status = types.CallStatusCompleted
	call.Rating = rating
	call.Suggestion = suggestion
	call.CompletedAt = &now

	if err := s.save(ctx, call); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("call_id", callID).
		Int("rating", rating).
		Msg("call feedback submitted")
	return call, nil
}

// Remove hard-deletes a call request
func (s *Service) Remove(ctx context.Context, callID string) error {
	if err := s.store.DeleteCallRequest(ctx, callID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete call request: %w", err)
	}

	s.logger.Info().Str("call_id", callID).Msg("call request deleted")
	return nil
}

// Get returns a call request by id
func (s *Service) Get(ctx context.Context, callID string) (*types.CallRequest, error) {
	return s.load(ctx, callID)
}

// ListOpen returns all call requests a reconnecting staff client needs to
// rebuild its view: pending, assigned and in-progress ones.
func (s *Service) ListOpen(ctx context.Context) ([]types.CallRequest, error) {
	calls, err := s.store.ListCallRequestsByStatus(ctx,
		types.CallStatusPending, types.CallStatusAssigned, types.CallStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to list open call requests: %w", err)
	}
	return calls, nil
}

func (s *Service) load(ctx context.Context, callID string) (*types.CallRequest, error) {
	call, err := s.store.GetCallRequest(ctx, callID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load call request: %w", err)
	}
	return call, nil
}

func (s *Service) save(ctx context.Context, call *types.CallRequest) error {
	if err := s.store.UpdateCallRequest(ctx, *call); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to persist call request: %w", err)
	}
	return nil
}
