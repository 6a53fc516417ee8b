package shared

import "context"

// EventPublisher is the outbound side of the event bus. Application
// services publish aggregate events through it after a successful save.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler consumes published domain events. EventTypes narrows the
// subscription; returning an empty slice subscribes to every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}
