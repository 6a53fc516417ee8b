package payment

import (
	"context"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	Status   *PaymentStatus // Filter by status
	Method   *PaymentMethod // Filter by settlement method
	FundID   *uuid.UUID     // Filter by linked cash fund
	DueFrom  *time.Time     // Filter by due date range start
	DueTo    *time.Time     // Filter by due date range end
	Overdue  *bool          // Filter only overdue payments
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID, including its partial payments
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByReference finds payments sharing a human reference
	// (references are not guaranteed globally unique)
	FindByReference(ctx context.Context, reference string) ([]Payment, error)

	// FindAll finds all payments with filtering
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// FindUnsettledDueBefore finds payments with outstanding balance due
	// before the cutoff, used by the overdue sweep
	FindUnsettledDueBefore(ctx context.Context, cutoff time.Time) ([]Payment, error)

	// Save creates or updates a payment and its partial payments
	Save(ctx context.Context, p *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, p *Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts payments with filtering
	Count(ctx context.Context, filter PaymentFilter) (int64, error)
}
