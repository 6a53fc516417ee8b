package notify

import (
	"context"

	"github.com/fintrack/backend/internal/domain/notification"
	"go.uber.org/zap"
)

// LogDispatcher delivers notifications to the application log. The
// persisted notification row is the system of record; dispatch is a
// best-effort side channel, so failures here must never fail the
// triggering operation.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a dispatcher that logs deliveries
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.Named("notify")}
}

// Dispatch logs the notification delivery
func (d *LogDispatcher) Dispatch(_ context.Context, n *notification.Notification) error {
	d.logger.Info("notification dispatched",
		zap.String("target_user", n.TargetUser),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title),
	)
	return nil
}

var _ notification.Dispatcher = (*LogDispatcher)(nil)
