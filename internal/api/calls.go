package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/callflow"
	"github.com/GB163/student-led-initiative-sub002/internal/messaging"
)

// CallsHandler serves the full-state query reconnecting staff clients use to
// re-derive current state (missed broadcasts are never replayed).
type CallsHandler struct {
	calls    *callflow.Service
	messages *messaging.Service
	logger   zerolog.Logger
}

// NewCallsHandler creates a CallsHandler
func NewCallsHandler(calls *callflow.Service, messages *messaging.Service, logger zerolog.Logger) *CallsHandler {
	return &CallsHandler{
		calls:    calls,
		messages: messages,
		logger:   logger.With().Str("component", "calls-api").Logger(),
	}
}

// HandleListOpen handles GET /api/calls
func (h *CallsHandler) HandleListOpen(w http.ResponseWriter, r *http.Request) {
	calls, err := h.calls.ListOpen(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list open calls")
		http.Error(w, "failed to list calls", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"calls": calls})
}

// HandleGet handles GET /api/calls/{callID}
func (h *CallsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")

	call, err := h.calls.Get(r.Context(), callID)
	if err != nil {
		if errors.Is(err, callflow.ErrNotFound) {
			http.Error(w, "call not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("call_id", callID).Msg("failed to load call")
		http.Error(w, "failed to load call", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(call)
}

// HandleMessages handles GET /api/calls/{callID}/messages
func (h *CallsHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")

	call, err := h.calls.Get(r.Context(), callID)
	if err != nil {
		if errors.Is(err, callflow.ErrNotFound) {
			http.Error(w, "call not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("call_id", callID).Msg("failed to load call")
		http.Error(w, "failed to load call", http.StatusInternalServerError)
		return
	}

	msgs, err := h.messages.History(r.Context(), call.OriginConnectionID)
	if err != nil {
		h.logger.Error().Err(err).Str("call_id", callID).Msg("failed to load message history")
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"messages": msgs})
}
