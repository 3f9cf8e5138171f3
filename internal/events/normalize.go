package events

import (
	"encoding/json"
	"errors"
	"strings"
)

// Older clients send identities and roles in several shapes: a bare JSON
// string, an object with "_id", or an object with "userId"/"role". They are
// all normalized here, at the transport boundary, so nothing downstream ever
// branches on payload shape.

var errBadShape = errors.New("unrecognized payload shape")

// NormalizeIdentity extracts an external entity id from a raw payload field.
// Returns "" for an absent or null field.
func NormalizeIdentity(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var obj struct {
		ID     string `json:"_id"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", errBadShape
	}
	if obj.ID != "" {
		return strings.TrimSpace(obj.ID), nil
	}
	if obj.UserID != "" {
		return strings.TrimSpace(obj.UserID), nil
	}
	return "", nil
}

// NormalizeRole extracts a role name from a raw payload field, which arrives
// either as a bare string or wrapped in an object.
func NormalizeRole(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.ToLower(strings.TrimSpace(s)), nil
	}

	var obj struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", errBadShape
	}
	return strings.ToLower(strings.TrimSpace(obj.Role)), nil
}
