// Package store persists the console's bearer token in a single slot that
// survives process restarts.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable matches any UnavailableError via errors.Is.
var ErrUnavailable = errors.New("session storage unavailable")

// UnavailableError reports a failure of the backing medium. Absence of a
// token is never reported as an error.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is lets callers match with errors.Is(err, ErrUnavailable).
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}

// Store is a single-slot token store.
type Store interface {
	// Read returns the persisted token; ok is false when none is stored.
	Read(ctx context.Context) (token string, ok bool, err error)
	// Write replaces the persisted token.
	Write(ctx context.Context, token string) error
	// Clear removes the persisted token. Clearing an empty slot succeeds.
	Clear(ctx context.Context) error
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
