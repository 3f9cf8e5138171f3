package types

import "time"

// ConnectionKind classifies a live connection by the role it registered
type ConnectionKind string

const (
	// KindAnonymous is the initial kind of every connection before registration
	KindAnonymous ConnectionKind = "anonymous"
	KindUser      ConnectionKind = "user"
	KindStaff     ConnectionKind = "staff"
	KindAdmin     ConnectionKind = "admin"
)

// IsStaffLike reports whether the kind participates in the staff directory
func (k ConnectionKind) IsStaffLike() bool {
	return k == KindStaff || k == KindAdmin
}

// ValidRole reports whether s is a role a client may register as
func ValidRole(s string) bool {
	switch ConnectionKind(s) {
	case KindUser, KindStaff, KindAdmin:
		return true
	}
	return false
}

// AgentStatus represents staff availability as seen by the presence store
type AgentStatus string

const (
	StatusAvailable AgentStatus = "available"
	StatusBusy      AgentStatus = "busy"
	StatusOffline   AgentStatus = "offline"
)

// Connection is one live duplex connection's registry entry
type Connection struct {
	ID          string         `json:"connectionId"`
	Kind        ConnectionKind `json:"kind"`
	Identity    string         `json:"identity,omitempty"` // external entity id, empty for anonymous/user
	DisplayName string         `json:"displayName,omitempty"`
	Device      string         `json:"device,omitempty"`
	ConnectedAt time.Time      `json:"connectedAt"`
}

// StaffConnection is one entry of the staff directory listing
type StaffConnection struct {
	Identity     string `json:"identity"`
	ConnectionID string `json:"connectionId"`
}

// RegistryCounts holds the current online totals
type RegistryCounts struct {
	Users int `json:"users"`
	Staff int `json:"staff"`
}
