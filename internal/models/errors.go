package models

import "errors"

// Error taxonomy shared by the services and mapped to HTTP statuses in
// the handlers. Services wrap these with %w so callers can use
// errors.Is regardless of the added context.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation failed")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrExternalService  = errors.New("external service error")

	// ErrConflict is returned by the store layer when an insert loses a
	// uniqueness race. The media allocator retries on it; it never
	// escapes a service boundary.
	ErrConflict = errors.New("conflict")
)
