package service

import (
	"errors"
	"fmt"
)

// Service error taxonomy. Handlers map these to HTTP status codes with
// errors.Is; everything else is an internal error.
var (
	// ErrNotFound marks an unknown owner, caregiver, device or event
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a malformed reading, location or request
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized marks a resolve attempt by an actor the event's
	// authorization rule does not permit
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDeliveryFailure marks a per-recipient delivery failure. It is
	// recorded and logged but never surfaced to the trigger caller.
	ErrDeliveryFailure = errors.New("delivery failed")
)

func errNotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func errInvalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func errUnauthorized(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}
