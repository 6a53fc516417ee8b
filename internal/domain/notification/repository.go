package notification

import (
	"context"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NotificationFilter defines filtering options for notification queries
type NotificationFilter struct {
	shared.Filter
	TargetUser *string           // Filter by target user (broadcasts included)
	Type       *NotificationType // Filter by type
	Unread     *bool             // Filter only unread
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// FindForUser finds notifications targeting the user or everyone
	FindForUser(ctx context.Context, userTarget string, filter NotificationFilter) ([]Notification, error)

	// FindAll finds all notifications with filtering
	FindAll(ctx context.Context, filter NotificationFilter) ([]Notification, error)

	// CountUnreadForUser counts unread notifications for a user
	CountUnreadForUser(ctx context.Context, userTarget string) (int64, error)

	// Save creates or updates a notification
	Save(ctx context.Context, n *Notification) error

	// Delete removes a notification
	Delete(ctx context.Context, id uuid.UUID) error
}
