package notification

import (
	"context"
	"time"

	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService exposes the per-user notification inbox
type NotificationService struct {
	notificationRepo notification.NotificationRepository
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo notification.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// ListForUser lists notifications addressed to the user, broadcasts
// included
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, filter notification.NotificationFilter) ([]notification.Notification, error) {
	return s.notificationRepo.FindForUser(ctx, userID.String(), filter)
}

// CountUnread counts the user's unread notifications
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notificationRepo.CountUnreadForUser(ctx, userID.String())
}

// MarkRead marks one notification as read. Users can only mark their
// own notifications (or broadcasts).
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*notification.Notification, error) {
	n, err := s.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Notification not found")
	}
	if !n.IsBroadcast() && n.TargetUser != userID.String() {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Notification belongs to another user")
	}

	if n.MarkRead(time.Now()) {
		if err := s.notificationRepo.Save(ctx, n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many were flipped
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	unread := true
	items, err := s.notificationRepo.FindForUser(ctx, userID.String(), notification.NotificationFilter{Unread: &unread})
	if err != nil {
		return 0, err
	}

	marked := 0
	now := time.Now()
	for i := range items {
		if items[i].MarkRead(now) {
			if err := s.notificationRepo.Save(ctx, &items[i]); err != nil {
				return marked, err
			}
			marked++
		}
	}

	if marked > 0 {
		s.logger.Debug("notifications marked read",
			zap.String("user_id", userID.String()),
			zap.Int("count", marked))
	}

	return marked, nil
}
