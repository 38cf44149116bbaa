package shell

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/asset-console/internal/events"
)

// Tracker counts identity changes so views can tell when they are stale.
type Tracker struct {
	mu        sync.RWMutex
	revision  uint64
	lastEvent events.EventType
	changedAt time.Time
}

// Subscriber is implemented by the session manager.
type Subscriber interface {
	Subscribe(handler events.EventHandler) (unsubscribe func())
}

// NewTracker subscribes a tracker to s.
func NewTracker(s Subscriber) (*Tracker, func()) {
	t := &Tracker{}
	return t, s.Subscribe(t.observe)
}

func (t *Tracker) observe(_ context.Context, e events.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revision++
	t.lastEvent = e.Type
	t.changedAt = e.Timestamp
	return nil
}

// Revision is a snapshot of the tracker.
type Revision struct {
	Number    uint64           `json:"number"`
	LastEvent events.EventType `json:"last_event,omitempty"`
	ChangedAt time.Time        `json:"changed_at"`
}

// Current returns the latest revision.
func (t *Tracker) Current() Revision {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Revision{Number: t.revision, LastEvent: t.lastEvent, ChangedAt: t.changedAt}
}
