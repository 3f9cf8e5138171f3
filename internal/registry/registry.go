// Package registry tracks live connections and the staff directory. It is
// the single source of truth for who is online; every other component looks
// connections up by id through it.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
	"github.com/rs/zerolog"
)

// Registry holds all live connection entries plus a bidirectional staff
// index (identity -> connection id and back), mutated atomically under one
// lock so a reconnect's evict-and-insert can never interleave with a
// concurrent disconnect.
type Registry struct {
	conns       map[string]*types.Connection
	staffByID   map[string]string // staff identity -> connection id
	identByConn map[string]string // connection id -> staff identity
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// New creates an empty Registry
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:       make(map[string]*types.Connection),
		staffByID:   make(map[string]string),
		identByConn: make(map[string]string),
		logger:      logger.With().Str("component", "registry").Logger(),
	}
}

// OnConnect stores a fresh anonymous entry for a newly opened connection
func (r *Registry) OnConnect(connID string) {
	r.mu.Lock()
	r.conns[connID] = &types.Connection{
		ID:          connID,
		Kind:        types.KindAnonymous,
		ConnectedAt: time.Now(),
	}
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Debug().
		Str("connection_id", connID).
		Int("total_connections", total).
		Msg("connection opened")
}

// RegisterUser upgrades a connection to kind=user. Re-registering the same
// connection overwrites the previous metadata. Returns the current user count.
func (r *Registry) RegisterUser(connID, displayName, device string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		// Connection raced with its own disconnect; nothing to upgrade.
		return r.countUsersLocked()
	}

	// A connection previously registered as staff drops out of the directory.
	r.dropStaffIndexLocked(connID)

	entry.Kind = types.KindUser
	entry.DisplayName = displayName
	entry.Device = device
	entry.Identity = ""

	return r.countUsersLocked()
}

// RegisterRole upgrades a connection to the given role. For staff/admin it
// inserts the identity into the staff directory, evicting any prior live
// mapping for the same identity (reconnect supersedes the old connection).
// The evicted connection id is returned so the transport can drop the dead
// socket; it is empty when nothing was evicted.
func (r *Registry) RegisterRole(connID string, kind types.ConnectionKind, ident, device string) (evicted string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return ""
	}

	r.dropStaffIndexLocked(connID)

	entry.Kind = kind
	entry.Device = device
	entry.Identity = ""

	if !kind.IsStaffLike() {
		return ""
	}

	entry.Identity = ident

	if old, exists := r.staffByID[ident]; exists && old != connID {
		delete(r.conns, old)
		delete(r.identByConn, old)
		evicted = old
		r.logger.Info().
			Str("staff_id", ident).
			Str("old_connection_id", old).
			Str("new_connection_id", connID).
			Msg("staff reconnected, superseding old connection")
	}

	r.staffByID[ident] = connID
	r.identByConn[connID] = ident
	return evicted
}

// Unregister removes a connection from the registry and, if present, the
// staff directory. Safe for connections that never registered. Returns the
// removed entry (nil when unknown) so callers can run compensating side
// effects such as marking presence offline.
func (r *Registry) Unregister(connID string) *types.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return nil
	}

	delete(r.conns, connID)
	r.dropStaffIndexLocked(connID)
	return entry
}

// Lookup returns a copy of the entry for connID, or nil when unknown
func (r *Registry) Lookup(connID string) *types.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.conns[connID]
	if !ok {
		return nil
	}
	cp := *entry
	return &cp
}

// ListStaffConnections returns the current staff directory, sorted by
// identity for stable output
func (r *Registry) ListStaffConnections() []types.StaffConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]types.StaffConnection, 0, len(r.staffByID))
	for ident, connID := range r.staffByID {
		list = append(list, types.StaffConnection{Identity: ident, ConnectionID: connID})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Identity < list[j].Identity })
	return list
}

// ListUserConnections returns copies of all user-kind entries
func (r *Registry) ListUserConnections() []types.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]types.Connection, 0)
	for _, entry := range r.conns {
		if entry.Kind == types.KindUser {
			list = append(list, *entry)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Counts returns the current user and staff totals
func (r *Registry) Counts() types.RegistryCounts {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return types.RegistryCounts{
		Users: r.countUsersLocked(),
		Staff: len(r.staffByID),
	}
}

// StaffIdentity returns the staff identity mapped to connID, if any
func (r *Registry) StaffIdentity(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ident, ok := r.identByConn[connID]
	return ident, ok
}

func (r *Registry) countUsersLocked() int {
	n := 0
	for _, entry := range r.conns {
		if entry.Kind == types.KindUser {
			n++
		}
	}
	return n
}

// dropStaffIndexLocked removes both directions of the staff index for connID
func (r *Registry) dropStaffIndexLocked(connID string) {
	ident, ok := r.identByConn[connID]
	if !ok {
		return
	}
	// Only clear the forward mapping if it still points at this connection;
	// a reconnect may already have claimed the identity.
	if r.staffByID[ident] == connID {
		delete(r.staffByID, ident)
	}
	delete(r.identByConn, connID)
}
