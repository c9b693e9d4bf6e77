package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport failures, timeouts, gateway errors and
	// failed health checks.
	ErrUnavailable  = errors.New("order store unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("order not found")
	ErrConflict     = errors.New("order already exists")
	// ErrScopeUnsupported means the store has no scoped listing; fetch all
	// and filter locally.
	ErrScopeUnsupported = errors.New("scoped listing not supported")
)

// RejectedError is an answer from the store refusing the request.
type RejectedError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("order store rejected request: HTTP %d", e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *RejectedError) Unwrap() error { return e.Err }

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}
