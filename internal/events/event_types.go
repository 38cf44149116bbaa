package events

import (
	"time"

	"github.com/spec-kit/asset-console/internal/domain"
)

// EventType enumerates session transitions published to listeners.
type EventType string

const (
	EventRestoring EventType = "session_restoring"
	EventRestored  EventType = "session_restored"
	EventLoggedIn  EventType = "session_logged_in"
	EventLoggedOut EventType = "session_logged_out"
)

// Event describes a committed session transition.
type Event struct {
	Type      EventType        `json:"type"`
	From      domain.State     `json:"from"`
	To        domain.State     `json:"to"`
	Identity  *domain.Identity `json:"identity,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
