package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/events"
	"github.com/spec-kit/asset-console/internal/observability"
)

// Subscriber is implemented by the session manager.
type Subscriber interface {
	Subscribe(handler events.EventHandler) (unsubscribe func())
}

// StartSessionListeners registers the logging and metrics listeners on the
// session and returns a func that removes them.
func StartSessionListeners(s Subscriber, logger *zap.Logger, metrics *observability.Metrics) func() {
	if s == nil {
		return func() {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	stops := []func(){
		s.Subscribe(observability.SessionLogger(logger)),
	}
	if metrics != nil {
		stops = append(stops, s.Subscribe(metrics.RecordTransition))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
