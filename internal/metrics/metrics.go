package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Connection metrics
	ConnectionsTotal    int64
	DisconnectionsTotal int64
	activeConnections   int64

	// Event metrics
	EventsReceivedTotal int64
	EventErrorsTotal    int64

	// Broadcast metrics
	BroadcastsTotal     int64
	DeliveredTotal      int64
	TargetsTotal        int64
	DeliveryMissesTotal int64

	// Call metrics
	CallsSubmittedTotal int64
	CallsCompletedTotal int64

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
	})
	return instance
}

// RecordConnect increments connection counters
func (m *Metrics) RecordConnect() {
	m.mu.Lock()
	m.ConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordDisconnect increments the disconnection counter
func (m *Metrics) RecordDisconnect() {
	m.mu.Lock()
	m.DisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordEvent increments the inbound event counter
func (m *Metrics) RecordEvent() {
	m.mu.Lock()
	m.EventsReceivedTotal++
	m.mu.Unlock()
}

// RecordEventError increments the event error counter
func (m *Metrics) RecordEventError() {
	m.mu.Lock()
	m.EventErrorsTotal++
	m.mu.Unlock()
}

// RecordBroadcast records one fan-out with its delivered count
func (m *Metrics) RecordBroadcast(delivered, total int) {
	m.mu.Lock()
	m.BroadcastsTotal++
	m.DeliveredTotal += int64(delivered)
	m.TargetsTotal += int64(total)
	m.mu.Unlock()
}

// RecordDeliveryMiss counts a send skipped because the target was not live
func (m *Metrics) RecordDeliveryMiss() {
	m.mu.Lock()
	m.DeliveryMissesTotal++
	m.mu.Unlock()
}

// RecordCallSubmitted increments the submitted-call counter
func (m *Metrics) RecordCallSubmitted() {
	m.mu.Lock()
	m.CallsSubmittedTotal++
	m.mu.Unlock()
}

// RecordCallCompleted increments the completed-call counter
func (m *Metrics) RecordCallCompleted() {
	m.mu.Lock()
	m.CallsCompletedTotal++
	m.mu.Unlock()
}

// GetActiveConnections returns the current live connection count
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		snapshot := map[string]any{
			"uptimeSeconds":       int64(time.Since(m.startTime).Seconds()),
			"connectionsTotal":    m.ConnectionsTotal,
			"disconnectionsTotal": m.DisconnectionsTotal,
			"activeConnections":   m.activeConnections,
			"eventsReceivedTotal": m.EventsReceivedTotal,
			"eventErrorsTotal":    m.EventErrorsTotal,
			"broadcastsTotal":     m.BroadcastsTotal,
			"deliveredTotal":      m.DeliveredTotal,
			"targetsTotal":        m.TargetsTotal,
			"deliveryMissesTotal": m.DeliveryMissesTotal,
			"callsSubmittedTotal": m.CallsSubmittedTotal,
			"callsCompletedTotal": m.CallsCompletedTotal,
		}
		m.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshot)
	}
}
