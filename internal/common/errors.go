package common

import "errors"

// Callers match these with errors.Is.
var (
	// repository specific errors
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// service specific errors
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrScopeFilter  = errors.New("scope filter disabled")
)
