package types

import "time"

// MessageRole identifies which side of a conversation authored a message
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleStaff MessageRole = "staff"
)

// ChatMessage is a persisted, append-only chat message. ConnectionID is the
// user-side connection the message correlates to: the sender's connection for
// a user message, the target user's connection for a staff reply.
type ChatMessage struct {
	ID           string      `json:"messageId" dynamodbav:"ID"`
	Text         string      `json:"text" dynamodbav:"Text"`
	Role         MessageRole `json:"role" dynamodbav:"Role"`
	ConnectionID string      `json:"connectionId" dynamodbav:"ConnectionID"`
	DisplayName  string      `json:"displayName,omitempty" dynamodbav:"DisplayName"`
	SentAt       time.Time   `json:"sentAt" dynamodbav:"SentAt"`
}
