package types

import "time"

// CallStatus represents the lifecycle state of a call-back request
type CallStatus string

const (
	CallStatusPending          CallStatus = "pending"           // Submitted, waiting for staff
	CallStatusAssigned         CallStatus = "assigned"          // Claimed by a staff member
	CallStatusInProgress       CallStatus = "in_progress"       // Call running
	CallStatusAwaitingFeedback CallStatus = "awaiting_feedback" // Call ended, feedback pending
	CallStatusCompleted        CallStatus = "completed"         // Feedback submitted
)

// CallRequest is a persisted call-back request from a user. The dynamodbav
// names are the attribute names the table schema and condition expressions
// refer to.
type CallRequest struct {
	ID                 string     `json:"callId" dynamodbav:"ID"`
	Name               string     `json:"name" dynamodbav:"Name"`
	Phone              string     `json:"phone" dynamodbav:"Phone"`
	Language           string     `json:"language" dynamodbav:"Language"`
	BestTime           string     `json:"bestTime" dynamodbav:"BestTime"`
	Notes              string     `json:"notes,omitempty" dynamodbav:"Notes"`
	OriginConnectionID string     `json:"originConnectionId" dynamodbav:"OriginConnectionID"` // connection that submitted it, may go stale
	Status             CallStatus `json:"status" dynamodbav:"Status"`
	AssignedTo         string     `json:"assignedTo,omitempty" dynamodbav:"AssignedTo"` // staff identity
	AssignedStaffName  string     `json:"assignedStaffName,omitempty" dynamodbav:"AssignedStaffName"`
	CreatedAt          time.Time  `json:"createdAt" dynamodbav:"CreatedAt"`
	AssignedAt         *time.Time `json:"assignedAt,omitempty" dynamodbav:"AssignedAt"`
	StartedAt          *time.Time `json:"startedAt,omitempty" dynamodbav:"StartedAt"`
	EndedAt            *time.Time `json:"endedAt,omitempty" dynamodbav:"EndedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty" dynamodbav:"CompletedAt"`
	CallDuration       int64      `json:"callDuration" dynamodbav:"CallDuration"` // whole seconds, 0 until ended
	Rating             int        `json:"rating,omitempty" dynamodbav:"Rating"`
	Suggestion         string     `json:"suggestion,omitempty" dynamodbav:"Suggestion"`
}
