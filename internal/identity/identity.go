// Package identity validates external entity ids handed to the hub by
// clients. Issuing and resolving those ids belongs to the account service;
// the hub only checks the shape before trusting one.
package identity

import "github.com/google/uuid"

// Validator confirms a string is a well-formed external entity id
type Validator interface {
	Valid(id string) bool
}

// UUIDValidator accepts ids in canonical UUID form, which is what the
// account service issues.
type UUIDValidator struct{}

func NewUUIDValidator() UUIDValidator { return UUIDValidator{} }

func (UUIDValidator) Valid(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
