// Package guard decides whether a navigation may proceed given the current
// session. Gates hold no state of their own and are evaluated on every request.
package guard

import "github.com/spec-kit/asset-console/internal/domain"

// Session is the read-only view of the session the gates consult.
type Session interface {
	State() domain.State
	IsAuthenticated() bool
	IsPrivileged() bool
}

// Outcome is the result of evaluating a gate.
type Outcome int

const (
	Allow Outcome = iota
	Pending
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is a gate verdict; Location is set for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Presence requires a settled, authenticated session. While restoration is in
// progress it holds the navigation instead of redirecting.
func Presence(s Session, loginLocation string) Decision {
	if !s.State().Settled() {
		return Decision{Outcome: Pending}
	}
	if !s.IsAuthenticated() {
		return Decision{Outcome: Redirect, Location: loginLocation}
	}
	return Decision{Outcome: Allow}
}

// Privilege requires the ADMIN role. It assumes Presence has already passed.
func Privilege(s Session, fallbackLocation string) Decision {
	if !s.IsPrivileged() {
		return Decision{Outcome: Redirect, Location: fallbackLocation}
	}
	return Decision{Outcome: Allow}
}
