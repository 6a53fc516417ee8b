package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFundRepository implements FundRepository using GORM
type GormFundRepository struct {
	db *gorm.DB
}

// NewGormFundRepository creates a new GormFundRepository
func NewGormFundRepository(db *gorm.DB) *GormFundRepository {
	return &GormFundRepository{db: db}
}

// FindByID finds a fund by its ID, including movements
func (r *GormFundRepository) FindByID(ctx context.Context, id uuid.UUID) (*fund.CashFund, error) {
	var f fund.CashFund
	if err := dbFromContext(ctx, r.db).
		Preload("Movements").
		First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// FindByMonth finds the funds covering a reference month
func (r *GormFundRepository) FindByMonth(ctx context.Context, month time.Time) ([]fund.CashFund, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)

	var funds []fund.CashFund
	if err := dbFromContext(ctx, r.db).
		Preload("Movements").
		Where("reference_month >= ? AND reference_month < ?", start, end).
		Find(&funds).Error; err != nil {
		return nil, err
	}
	return funds, nil
}

// FindAll finds all funds matching the filter
func (r *GormFundRepository) FindAll(ctx context.Context, filter fund.FundFilter) ([]fund.CashFund, error) {
	var funds []fund.CashFund
	query := r.applyFilter(dbFromContext(ctx, r.db).Model(&fund.CashFund{}), filter)

	if err := query.Preload("Movements").Find(&funds).Error; err != nil {
		return nil, err
	}
	return funds, nil
}

// FindByPaymentRef finds funds holding a movement that references the payment
func (r *GormFundRepository) FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) ([]fund.CashFund, error) {
	var fundIDs []uuid.UUID
	if err := dbFromContext(ctx, r.db).
		Model(&fund.FundMovement{}).
		Where("payment_id = ?", paymentID).
		Distinct("fund_id").
		Pluck("fund_id", &fundIDs).Error; err != nil {
		return nil, err
	}
	if len(fundIDs) == 0 {
		return []fund.CashFund{}, nil
	}

	var funds []fund.CashFund
	if err := dbFromContext(ctx, r.db).
		Preload("Movements").
		Where("id IN ?", fundIDs).
		Find(&funds).Error; err != nil {
		return nil, err
	}
	return funds, nil
}

// Save creates or updates a fund and its movements
func (r *GormFundRepository) Save(ctx context.Context, f *fund.CashFund) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		return r.saveWithMovements(tx, f)
	})
}

// SaveWithLock saves the fund only if the stored version is older than
// the in-memory one
func (r *GormFundRepository) SaveWithLock(ctx context.Context, f *fund.CashFund) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		var current fund.CashFund
		err := tx.Select("version").First(&current, "id = ?", f.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && current.Version >= f.Version {
			return shared.ErrConcurrentModification
		}
		return r.saveWithMovements(tx, f)
	})
}

// saveWithMovements upserts the fund with its movement rows, then prunes
// stored movements the aggregate no longer carries. Upserting alone would
// leave removed movements in place and the next preload would silently
// reinstate them into the balance.
func (r *GormFundRepository) saveWithMovements(tx *gorm.DB, f *fund.CashFund) error {
	if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(f).Error; err != nil {
		return err
	}

	kept := make([]uuid.UUID, 0, len(f.Movements))
	for i := range f.Movements {
		kept = append(kept, f.Movements[i].ID)
	}
	prune := tx.Where("fund_id = ?", f.ID)
	if len(kept) > 0 {
		prune = prune.Where("id NOT IN ?", kept)
	}
	return prune.Delete(&fund.FundMovement{}).Error
}

// Delete deletes a fund and its movements
func (r *GormFundRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&fund.FundMovement{}, "fund_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&fund.CashFund{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts funds matching the filter
func (r *GormFundRepository) Count(ctx context.Context, filter fund.FundFilter) (int64, error) {
	var count int64
	query := r.applyConditions(dbFromContext(ctx, r.db).Model(&fund.CashFund{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormFundRepository) applyFilter(query *gorm.DB, filter fund.FundFilter) *gorm.DB {
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
		query = query.Order("reference_month DESC, name ASC")
	}

	return query
}

func (r *GormFundRepository) applyConditions(query *gorm.DB, filter fund.FundFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	if filter.MonthFrom != nil {
		query = query.Where("reference_month >= ?", *filter.MonthFrom)
	}
	if filter.MonthTo != nil {
		query = query.Where("reference_month <= ?", *filter.MonthTo)
	}
	return query
}

// Ensure GormFundRepository implements FundRepository
var _ fund.FundRepository = (*GormFundRepository)(nil)
