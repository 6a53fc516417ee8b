package fund

import (
	"context"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FundFilter defines filtering options for fund queries
type FundFilter struct {
	shared.Filter
	MonthFrom *time.Time // Filter by reference month range start
	MonthTo   *time.Time // Filter by reference month range end
}

// FundRepository defines the interface for cash fund persistence
type FundRepository interface {
	// FindByID finds a fund by ID, including its movements
	FindByID(ctx context.Context, id uuid.UUID) (*CashFund, error)

	// FindByMonth finds the funds covering a reference month
	FindByMonth(ctx context.Context, month time.Time) ([]CashFund, error)

	// FindAll finds all funds with filtering
	FindAll(ctx context.Context, filter FundFilter) ([]CashFund, error)

	// FindByPaymentRef finds funds holding a movement that references
	// the given payment
	FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) ([]CashFund, error)

	// Save creates or updates a fund and its movements
	Save(ctx context.Context, f *CashFund) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, f *CashFund) error

	// Delete removes a fund
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts funds with filtering
	Count(ctx context.Context, filter FundFilter) (int64, error)
}
