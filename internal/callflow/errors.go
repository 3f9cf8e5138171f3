package callflow

import (
	"errors"
	"fmt"
)

var (
	// ErrCallUnavailable means the call was already claimed, changed state,
	// or no longer exists; reported to the accepting connection only.
	ErrCallUnavailable = errors.New("call request is no longer available")

	// ErrNotFound means the call id is unknown
	ErrNotFound = errors.New("call request not found")
)

// ValidationError reports a malformed or missing required field. It is sent
// back to the originating connection and never broadcast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
