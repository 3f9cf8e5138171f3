package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/metrics"
	"github.com/GB163/student-led-initiative-sub002/internal/registry"
)

// EventHandler receives transport lifecycle and message events. The events
// processor implements it; the hub stays protocol-agnostic.
type EventHandler interface {
	HandleConnect(connID string)
	HandleEvent(connID string, message []byte)
	HandleDisconnect(connID string)
}

// Hub maintains the set of live client connections and fans events out to
// them. Delivery is fire-and-forget: a slow or stale client is skipped or
// dropped, never retried, and missed events are not buffered.
type Hub struct {
	// Live clients by connection id
	clients map[string]*Client

	// Register requests from new clients
	register chan *Client

	// Unregister requests from closing clients
	unregister chan *Client

	// Who-is-online source of truth for staff fan-out
	registry *registry.Registry

	// Set once at startup, before Run
	handler EventHandler

	// Mutex to protect clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(reg *registry.Registry, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   reg,
		logger:     logger,
	}
}

// SetHandler wires the event handler (after construction, to avoid a
// circular setup between hub and processor)
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	m := metrics.Get()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()

			if h.handler != nil {
				h.handler.HandleConnect(client.id)
			}
			m.RecordConnect()

			h.logger.Info().
				Str("connection_id", client.id).
				Int("total_connections", total).
				Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			existing, ok := h.clients[client.id]
			if ok && existing == client {
				delete(h.clients, client.id)
			}
			total := len(h.clients)
			h.mu.Unlock()

			if ok && existing == client {
				client.Close()
				if h.handler != nil {
					h.handler.HandleDisconnect(client.id)
				}
				m.RecordDisconnect()

				h.logger.Info().
					Str("connection_id", client.id).
					Int("total_connections", total).
					Msg("client disconnected")
			}
		}
	}
}

// ToConnection sends one event to a single connection. Returns false when
// the connection is not live; that is a delivery miss, not an error.
func (h *Hub) ToConnection(connID string, event any) bool {
	data, ok := h.marshal(event)
	if !ok {
		return false
	}

	h.mu.RLock()
	client, live := h.clients[connID]
	h.mu.RUnlock()

	if !live {
		metrics.Get().RecordDeliveryMiss()
		return false
	}
	if !client.safeSend(data) {
		metrics.Get().RecordDeliveryMiss()
		return false
	}
	return true
}

// ToStaff fans an event out to every live staff connection in the
// directory. Stale directory entries are skipped, not errors. Returns how
// many were delivered versus how many staff are registered.
func (h *Hub) ToStaff(event any) (delivered, total int) {
	data, ok := h.marshal(event)
	if !ok {
		return 0, 0
	}

	staff := h.registry.ListStaffConnections()
	total = len(staff)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, entry := range staff {
		client, live := h.clients[entry.ConnectionID]
		if !live {
			metrics.Get().RecordDeliveryMiss()
			continue
		}
		if client.safeSend(data) {
			delivered++
		} else {
			metrics.Get().RecordDeliveryMiss()
		}
	}

	metrics.Get().RecordBroadcast(delivered, total)
	return delivered, total
}

// ToAll sends an event to every live connection, used only for global
// invalidation such as call deletion. Returns the delivered count.
func (h *Hub) ToAll(event any) int {
	data, ok := h.marshal(event)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, client := range h.clients {
		if client.safeSend(data) {
			delivered++
		}
	}

	metrics.Get().RecordBroadcast(delivered, len(h.clients))
	return delivered
}

// DropConnection force-closes a live connection, used when a staff reconnect
// supersedes an old socket. The read pump noticing the close runs the normal
// disconnect path.
func (h *Hub) DropConnection(connID string) {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()

	if ok {
		client.CloseConn()
		h.logger.Info().Str("connection_id", connID).Msg("connection dropped")
	}
}

// ClientCount returns the number of live connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsLive reports whether a connection id has a live client
func (h *Hub) IsLive(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[connID]
	return ok
}

func (h *Hub) marshal(event any) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal outbound event")
		return nil, false
	}
	return data, true
}
