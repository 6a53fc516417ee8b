package persistence

import (
	"context"
	"strings"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements AuditRepository using GORM. The trail
// is append-only: entries are created and read, never updated.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Record appends an audit entry
func (r *GormAuditRepository) Record(ctx context.Context, entry *audit.AuditEntry) error {
	return dbFromContext(ctx, r.db).Create(entry).Error
}

// FindByEntity lists the trail for one aggregate, oldest first
func (r *GormAuditRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]audit.AuditEntry, error) {
	var entries []audit.AuditEntry
	if err := dbFromContext(ctx, r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("occurred_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindAll finds audit entries matching the filter
func (r *GormAuditRepository) FindAll(ctx context.Context, filter audit.AuditFilter) ([]audit.AuditEntry, error) {
	var entries []audit.AuditEntry
	query := r.applyFilter(dbFromContext(ctx, r.db).Model(&audit.AuditEntry{}), filter)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count counts audit entries matching the filter
func (r *GormAuditRepository) Count(ctx context.Context, filter audit.AuditFilter) (int64, error) {
	var count int64
	query := r.applyConditions(dbFromContext(ctx, r.db).Model(&audit.AuditEntry{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAuditRepository) applyFilter(query *gorm.DB, filter audit.AuditFilter) *gorm.DB {
	query = r.applyConditions(query, filter)

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
		query = query.Order("occurred_at DESC")
	}

	return query
}

func (r *GormAuditRepository) applyConditions(query *gorm.DB, filter audit.AuditFilter) *gorm.DB {
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}
	return query
}

// Ensure GormAuditRepository implements AuditRepository
var _ audit.AuditRepository = (*GormAuditRepository)(nil)
