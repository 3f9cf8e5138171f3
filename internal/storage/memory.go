package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// MemoryStore is the in-process Store used when no durable backend is
// configured, and as the store double in tests. The conditional update runs
// under the store lock, giving the same check-and-set semantics the durable
// backends provide.
type MemoryStore struct {
	calls    map[string]types.CallRequest
	messages []types.ChatMessage
	mu       sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: make(map[string]types.CallRequest)}
}

func (s *MemoryStore) CreateCallRequest(_ context.Context, call types.CallRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[call.ID] = call
	return nil
}

func (s *MemoryStore) GetCallRequest(_ context.Context, callID string) (*types.CallRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	call, ok := s.calls[callID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := call
	return &cp, nil
}

func (s *MemoryStore) UpdateCallRequest(_ context.Context, call types.CallRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calls[call.ID]; !ok {
		return ErrNotFound
	}
	s.calls[call.ID] = call
	return nil
}

func (s *MemoryStore) UpdateCallRequestIfStatus(_ context.Context, call types.CallRequest, expect types.CallStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.calls[call.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != expect {
		return ErrConditionFailed
	}
	s.calls[call.ID] = call
	return nil
}

func (s *MemoryStore) DeleteCallRequest(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calls[callID]; !ok {
		return ErrNotFound
	}
	delete(s.calls, callID)
	return nil
}

func (s *MemoryStore) ListCallRequestsByStatus(_ context.Context, statuses ...types.CallStatus) ([]types.CallRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[types.CallStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	var result []types.CallRequest
	for _, call := range s.calls {
		if len(wanted) == 0 || wanted[call.Status] {
			result = append(result, call)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, msg types.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemoryStore) ListMessagesForConnection(_ context.Context, connID string) ([]types.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []types.ChatMessage
	for _, msg := range s.messages {
		if msg.ConnectionID == connID {
			result = append(result, msg)
		}
	}
	return result, nil
}
