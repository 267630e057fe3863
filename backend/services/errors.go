package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by AuthGate.Login for any rejected secret
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUnauthorized   = errors.New("admin session required")
	ErrUnknownCountry = errors.New("unknown country")
	ErrUnknownColor   = errors.New("unknown color")
	ErrNotFound       = errors.New("country has no color")

	ErrReadFailed  = errors.New("failed to read color file")
	ErrWriteFailed = errors.New("failed to write color file")
)

// PersistenceError wraps an I/O failure on the color file. Kind is
// ErrReadFailed or ErrWriteFailed.
type PersistenceError struct {
	Kind error
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%v %s: %v", e.Kind, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
