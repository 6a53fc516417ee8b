package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationRepository implements NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by its ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := dbFromContext(ctx, r.db).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindForUser finds notifications targeting the user, broadcasts included
func (r *GormNotificationRepository) FindForUser(ctx context.Context, userTarget string, filter notification.NotificationFilter) ([]notification.Notification, error) {
	var items []notification.Notification
	query := dbFromContext(ctx, r.db).
		Model(&notification.Notification{}).
		Where("target_user = ? OR target_user = ?", userTarget, notification.TargetAll)
	query = r.applyFilter(query, filter)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAll finds all notifications matching the filter
func (r *GormNotificationRepository) FindAll(ctx context.Context, filter notification.NotificationFilter) ([]notification.Notification, error) {
	var items []notification.Notification
	query := r.applyFilter(dbFromContext(ctx, r.db).Model(&notification.Notification{}), filter)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountUnreadForUser counts unread notifications for a user
func (r *GormNotificationRepository) CountUnreadForUser(ctx context.Context, userTarget string) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&notification.Notification{}).
		Where("(target_user = ? OR target_user = ?) AND read = ?", userTarget, notification.TargetAll, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return dbFromContext(ctx, r.db).Save(n).Error
}

// Delete deletes a notification
func (r *GormNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&notification.Notification{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormNotificationRepository) applyFilter(query *gorm.DB, filter notification.NotificationFilter) *gorm.DB {
	if filter.TargetUser != nil {
		query = query.Where("target_user = ?", *filter.TargetUser)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Unread != nil {
		query = query.Where("read = ?", !*filter.Unread)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormNotificationRepository implements NotificationRepository
var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)
