// Package token decodes the claims embedded in bearer tokens issued by the
// auth endpoint.
//
// Signatures are not verified here. A token is trusted as returned by the
// auth endpoint or as read back from the session store this process wrote;
// the API verifies it on every call.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/asset-console/internal/domain"
)

// ErrMalformed matches any MalformedTokenError via errors.Is.
var ErrMalformed = errors.New("malformed token")

// MalformedTokenError reports a token whose claims cannot be decoded.
type MalformedTokenError struct {
	Reason string
	Err    error
}

func (e *MalformedTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed token: %s: %v", e.Reason, e.Err)
	}
	return "malformed token: " + e.Reason
}

func (e *MalformedTokenError) Unwrap() error {
	return e.Err
}

// Is lets callers match with errors.Is(err, ErrMalformed).
func (e *MalformedTokenError) Is(target error) bool {
	return target == ErrMalformed
}

// Claims are the structural claims the console relies on.
type Claims struct {
	Subject   string
	Role      domain.Role
	ExpiresAt time.Time
}

// ValidAt reports whether the token is still valid at the given instant.
func (c Claims) ValidAt(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// Identity projects the claims onto the principal they describe.
func (c Claims) Identity() domain.Identity {
	return domain.Identity{SubjectID: c.Subject, Role: c.Role}
}

type wireClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec decodes bearer tokens. The zero value is ready to use.
type Codec struct{}

// NewCodec returns a codec.
func NewCodec() Codec {
	return Codec{}
}

// Decode extracts subject, role and expiry from a JWT without verifying it.
func (Codec) Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, &MalformedTokenError{Reason: "empty token"}
	}

	// The header alg must name a method jwt knows; anything else fails closed.
	var wc wireClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &wc); err != nil {
		return Claims{}, &MalformedTokenError{Reason: "unparseable", Err: err}
	}

	if wc.Subject == "" {
		return Claims{}, &MalformedTokenError{Reason: "missing sub claim"}
	}
	if wc.ExpiresAt == nil {
		return Claims{}, &MalformedTokenError{Reason: "missing exp claim"}
	}
	role, err := domain.ParseRole(wc.Role)
	if err != nil {
		return Claims{}, &MalformedTokenError{Reason: "role claim", Err: err}
	}

	return Claims{
		Subject:   wc.Subject,
		Role:      role,
		ExpiresAt: wc.ExpiresAt.Time,
	}, nil
}
