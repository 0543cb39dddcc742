package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Mutation flow errors
	ErrStateMismatch    = errors.New("server response does not reflect requested change")
	ErrMutationInFlight = errors.New("a mutation is already in flight for this record")
	ErrNoPendingAction  = errors.New("no pending action for this token")
)
