package session

import (
	"errors"
	"fmt"
)

// ErrSession matches any SessionError via errors.Is.
var ErrSession = errors.New("session contract violation")

// SessionError reports a token returned by the auth endpoint that the console
// cannot adopt. It signals a broken endpoint contract, not a user mistake.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func (e *SessionError) Is(target error) bool {
	return target == ErrSession
}

// ErrNotSettled is returned by Login while the stored session is still being
// restored (or before Initialize has run).
var ErrNotSettled = errors.New("session not settled")
