package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID, including partial payments
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := dbFromContext(ctx, r.db).
		Preload("PartialPayments").
		First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByReference finds payments sharing a human reference
func (r *GormPaymentRepository) FindByReference(ctx context.Context, reference string) ([]payment.Payment, error) {
	var payments []payment.Payment
	if err := dbFromContext(ctx, r.db).
		Preload("PartialPayments").
		Where("reference = ?", reference).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindAll finds all payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter payment.PaymentFilter) ([]payment.Payment, error) {
	var payments []payment.Payment
	query := r.applyFilter(dbFromContext(ctx, r.db).Model(&payment.Payment{}), filter)

	if err := query.Preload("PartialPayments").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindUnsettledDueBefore finds payments with outstanding balance due before the cutoff
func (r *GormPaymentRepository) FindUnsettledDueBefore(ctx context.Context, cutoff time.Time) ([]payment.Payment, error) {
	var payments []payment.Payment
	if err := dbFromContext(ctx, r.db).
		Preload("PartialPayments").
		Where("status IN ? AND pending_amount > ? AND due_date < ?",
			[]payment.PaymentStatus{payment.PaymentStatusPending, payment.PaymentStatusOverdue},
			decimal.Zero, cutoff).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Save creates or updates a payment and its partial payments
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return dbFromContext(ctx, r.db).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(p).Error
}

// SaveWithLock saves the payment only if the stored version is older than
// the in-memory one
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		var current payment.Payment
		err := tx.Select("version").First(&current, "id = ?", p.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && current.Version >= p.Version {
			return shared.ErrConcurrentModification
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(p).Error
	})
}

// Delete deletes a payment and its partial payments
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&payment.PartialPayment{}, "payment_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&payment.Payment{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter payment.PaymentFilter) (int64, error) {
	var count int64
	query := r.applyConditions(dbFromContext(ctx, r.db).Model(&payment.Payment{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies conditions, ordering and pagination
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter payment.PaymentFilter) *gorm.DB {
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
		query = query.Order("due_date ASC, created_at ASC")
	}

	return query
}

// applyConditions applies filter conditions without pagination
func (r *GormPaymentRepository) applyConditions(query *gorm.DB, filter payment.PaymentFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("reference LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.FundID != nil {
		query = query.Where("fund_id = ?", *filter.FundID)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			query = query.Where("status = ?", payment.PaymentStatusOverdue)
		} else {
			query = query.Where("status <> ?", payment.PaymentStatusOverdue)
		}
	}
	return query
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)
