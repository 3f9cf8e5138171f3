package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/registry"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// DiagHandler exposes read-only registry state for operational inspection
type DiagHandler struct {
	registry *registry.Registry
	logger   zerolog.Logger
}

// NewDiagHandler creates a DiagHandler
func NewDiagHandler(reg *registry.Registry, logger zerolog.Logger) *DiagHandler {
	return &DiagHandler{
		registry: reg,
		logger:   logger.With().Str("component", "diag").Logger(),
	}
}

type registrySnapshot struct {
	Counts types.RegistryCounts    `json:"counts"`
	Staff  []types.StaffConnection `json:"staff"`
	Users  []types.Connection      `json:"users"`
}

// HandleRegistry handles GET /internal/registry
func (h *DiagHandler) HandleRegistry(w http.ResponseWriter, r *http.Request) {
	snapshot := registrySnapshot{
		Counts: h.registry.Counts(),
		Staff:  h.registry.ListStaffConnections(),
		Users:  h.registry.ListUserConnections(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode registry snapshot")
	}
}
