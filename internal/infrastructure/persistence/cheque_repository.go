package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChequeRepository implements ChequeRepository using GORM
type GormChequeRepository struct {
	db *gorm.DB
}

// NewGormChequeRepository creates a new GormChequeRepository
func NewGormChequeRepository(db *gorm.DB) *GormChequeRepository {
	return &GormChequeRepository{db: db}
}

// FindByID finds a cheque by its ID
func (r *GormChequeRepository) FindByID(ctx context.Context, id uuid.UUID) (*cheque.Cheque, error) {
	var c cheque.Cheque
	if err := dbFromContext(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByNumber finds a cheque by its number. Comparison is case-sensitive
// so serial numbers with letter prefixes stay distinct.
func (r *GormChequeRepository) FindByNumber(ctx context.Context, number string) (*cheque.Cheque, error) {
	var c cheque.Cheque
	if err := dbFromContext(ctx, r.db).
		Where("number = ?", number).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindAll finds all cheques matching the filter
func (r *GormChequeRepository) FindAll(ctx context.Context, filter cheque.ChequeFilter) ([]cheque.Cheque, error) {
	var cheques []cheque.Cheque
	query := r.applyFilter(dbFromContext(ctx, r.db).Model(&cheque.Cheque{}), filter)

	if err := query.Find(&cheques).Error; err != nil {
		return nil, err
	}
	return cheques, nil
}

// FindByPaymentRef finds cheques referencing the given payment
func (r *GormChequeRepository) FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) ([]cheque.Cheque, error) {
	var cheques []cheque.Cheque
	if err := dbFromContext(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Find(&cheques).Error; err != nil {
		return nil, err
	}
	return cheques, nil
}

// ExistsByNumber checks if a cheque number is already registered
func (r *GormChequeRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&cheque.Cheque{}).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a cheque
func (r *GormChequeRepository) Save(ctx context.Context, c *cheque.Cheque) error {
	return dbFromContext(ctx, r.db).Save(c).Error
}

// SaveWithLock saves the cheque only if the stored version is older than
// the in-memory one
func (r *GormChequeRepository) SaveWithLock(ctx context.Context, c *cheque.Cheque) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		var current cheque.Cheque
		err := tx.Select("version").First(&current, "id = ?", c.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && current.Version >= c.Version {
			return shared.ErrConcurrentModification
		}
		return tx.Save(c).Error
	})
}

// Delete deletes a cheque
func (r *GormChequeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Delete(&cheque.Cheque{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts cheques matching the filter
func (r *GormChequeRepository) Count(ctx context.Context, filter cheque.ChequeFilter) (int64, error) {
	var count int64
	query := r.applyConditions(dbFromContext(ctx, r.db).Model(&cheque.Cheque{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormChequeRepository) applyFilter(query *gorm.DB, filter cheque.ChequeFilter) *gorm.DB {
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
		query = query.Order("issued_at DESC")
	}

	return query
}

func (r *GormChequeRepository) applyConditions(query *gorm.DB, filter cheque.ChequeFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("number LIKE ? OR payee LIKE ?", pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentID != nil {
		query = query.Where("payment_id = ?", *filter.PaymentID)
	}
	return query
}

// Ensure GormChequeRepository implements ChequeRepository
var _ cheque.ChequeRepository = (*GormChequeRepository)(nil)
