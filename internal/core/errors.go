package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeTransport              = "transport_error"
	ErrCodePermissionDenied       = "permission_denied"
	ErrCodeUnsupportedEnvironment = "unsupported_environment"
)

var (
	ErrPermissionDenied       = errors.New("notification permission denied")
	ErrUnsupportedEnvironment = errors.New("push notifications need a physical device")
)

// TransportError marks a failed network call against a backend collaborator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport wraps err as a TransportError for the given operation.
func Transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// CodeOf maps an error to its domain code, or "" for errors outside the
// taxonomy.
func CodeOf(err error) string {
	var te *TransportError
	switch {
	case errors.As(err, &te):
		return ErrCodeTransport
	case errors.Is(err, ErrPermissionDenied):
		return ErrCodePermissionDenied
	case errors.Is(err, ErrUnsupportedEnvironment):
		return ErrCodeUnsupportedEnvironment
	default:
		return ""
	}
}
