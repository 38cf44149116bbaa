package authclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials matches InvalidCredentialsError.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRejected matches RejectedError.
	ErrRejected = errors.New("request rejected")
	// ErrTransport matches TransportError.
	ErrTransport = errors.New("auth endpoint unreachable")
)

// InvalidCredentialsError is returned when the endpoint refuses the credentials.
type InvalidCredentialsError struct {
	Status  int
	Message string
}

func (e *InvalidCredentialsError) Error() string {
	if e.Message != "" {
		return "invalid credentials: " + e.Message
	}
	return "invalid credentials"
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// RejectedError is returned for any other client-side refusal (malformed request).
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("auth endpoint rejected request (%d): %s", e.Status, e.Message)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// TransportError covers network failures and server-side errors.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth endpoint failure (%d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("auth endpoint failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
