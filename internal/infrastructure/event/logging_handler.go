package event

import (
	"context"

	"github.com/fintrack/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingHandler is a wildcard handler that writes every published
// domain event to the structured log. It gives operators a flat stream
// of ledger activity without touching the audit trail.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a logging event handler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.Named("events")}
}

// Handle logs the event
func (h *LoggingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice so the handler receives all events
func (h *LoggingHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*LoggingHandler)(nil)
