package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/events"
)

// SessionLogger returns a session listener that logs transitions. Tokens are
// never part of the event and are never logged.
func SessionLogger(logger *zap.Logger) events.EventHandler {
	return func(_ context.Context, e events.Event) error {
		fields := []zap.Field{
			zap.String("event", string(e.Type)),
			zap.String("from", string(e.From)),
			zap.String("to", string(e.To)),
		}
		if e.Identity != nil {
			fields = append(fields,
				zap.String("subject", e.Identity.SubjectID),
				zap.String("role", string(e.Identity.Role)),
			)
		}
		logger.Info("session transition", fields...)
		return nil
	}
}
