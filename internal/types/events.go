package types

import "encoding/json"

// Inbound frames (client -> server). Fields carrying identities or roles are
// kept raw here because older clients send them in several shapes; the events
// package normalizes them before any business logic runs.

// RegisterUser is sent by an end-user client after connecting
type RegisterUser struct {
	Type        string `json:"type"` // "register_user"
	DisplayName string `json:"displayName"`
	Device      string `json:"device,omitempty"`
}

// RegisterRole is the unified registration frame for user/staff/admin clients
type RegisterRole struct {
	Type     string          `json:"type"` // "register_role"
	Role     json.RawMessage `json:"role"` // bare string or {"role": "..."}
	Identity json.RawMessage `json:"identity,omitempty"`
	Device   string          `json:"device,omitempty"`
}

// RegisterStaffLegacy is the narrower staff registration kept for old clients
type RegisterStaffLegacy struct {
	Type     string          `json:"type"` // "register_staff"
	Identity json.RawMessage `json:"identity"`
}

// UserMessage is a chat message from a user to the staff pool
type UserMessage struct {
	Type        string `json:"type"` // "user_message"
	Text        string `json:"text"`
	DisplayName string `json:"displayName,omitempty"`
}

// StaffMessage is a chat reply from staff to one user connection
type StaffMessage struct {
	Type               string `json:"type"` // "staff_message"
	TargetConnectionID string `json:"targetConnectionId"`
	Text               string `json:"text"`
	StaffName          string `json:"staffName,omitempty"`
}

// CallSubmit creates a new call-back request
type CallSubmit struct {
	Type     string `json:"type"` // "call_request"
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
	BestTime string `json:"bestTime"`
	Notes    string `json:"notes,omitempty"`
}

// CallAccept claims a pending call for a staff member
type CallAccept struct {
	Type      string          `json:"type"` // "accept_call"
	CallID    string          `json:"callId"`
	Identity  json.RawMessage `json:"staffId"`
	StaffName string          `json:"staffName,omitempty"`
}

// CallStart marks an assigned call as running
type CallStart struct {
	Type   string `json:"type"` // "start_call"
	CallID string `json:"callId"`
}

// CallEnd finishes a running call
type CallEnd struct {
	Type     string          `json:"type"` // "end_call"
	CallID   string          `json:"callId"`
	Identity json.RawMessage `json:"staffId"`
}

// CallReject releases an assigned call back to the pending pool
type CallReject struct {
	Type     string          `json:"type"` // "reject_call"
	CallID   string          `json:"callId"`
	Identity json.RawMessage `json:"staffId"`
}

// CallFeedback stores post-call feedback from the requesting user
type CallFeedback struct {
	Type       string `json:"type"` // "call_feedback"
	CallID     string `json:"callId"`
	Rating     int    `json:"rating"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CallDelete removes a call request entirely
type CallDelete struct {
	Type   string `json:"type"` // "delete_call"
	CallID string `json:"callId"`
}

// Heartbeat refreshes a staff member's last-active timestamp
type Heartbeat struct {
	Type     string          `json:"type"` // "heartbeat"
	Identity json.RawMessage `json:"userId"`
}

// Outbound frames (server -> client).

// UserRegistered acknowledges a register_user frame
type UserRegistered struct {
	Type         string `json:"type"` // "registered"
	ConnectionID string `json:"connectionId"`
	TotalUsers   int    `json:"totalUsers"`
}

// RoleRegistered acknowledges a register_role frame
type RoleRegistered struct {
	Type       string `json:"type"` // "role_registered"
	Success    bool   `json:"success"`
	Role       string `json:"role"`
	TotalUsers int    `json:"totalUsers,omitempty"`
	TotalStaff int    `json:"totalStaff,omitempty"`
}

// StaffRegistered acknowledges a legacy register_staff frame
type StaffRegistered struct {
	Type       string `json:"type"` // "staff_registered"
	Identity   string `json:"staffId"`
	TotalStaff int    `json:"totalStaff"`
}

// ErrorFrame reports a structured failure to the originating connection only
type ErrorFrame struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewCallRequest announces a freshly submitted call to the staff pool
type NewCallRequest struct {
	Type string      `json:"type"` // "new_call_request"
	Call CallRequest `json:"call"`
}

// CallAck confirms a call submission to the requester, with fan-out counts
type CallAck struct {
	Type  string      `json:"type"` // "call_ack"
	Call  CallRequest `json:"call"`
	Sent  int         `json:"sent"`
	Total int         `json:"total"`
}

// CallUpdated carries the full record after any state transition
type CallUpdated struct {
	Type string      `json:"type"` // "call_updated"
	Call CallRequest `json:"call"`
}

// CallDeleted announces a hard-deleted call to every connection
type CallDeleted struct {
	Type   string `json:"type"` // "call_deleted"
	CallID string `json:"callId"`
}

// NewMessage relays a user chat message to the staff pool
type NewMessage struct {
	Type    string      `json:"type"` // "new_message"
	Message ChatMessage `json:"message"`
}

// DirectMessage relays a staff chat reply to its target user
type DirectMessage struct {
	Type    string      `json:"type"` // "direct_message"
	Message ChatMessage `json:"message"`
}

// MessageAck confirms a chat message to its sender, with delivery counts
type MessageAck struct {
	Type      string `json:"type"` // "message_ack"
	Delivered int    `json:"delivered"`
	Total     int    `json:"total"`
}
