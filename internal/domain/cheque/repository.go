package cheque

import (
	"context"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ChequeFilter defines filtering options for cheque queries
type ChequeFilter struct {
	shared.Filter
	Status    *ChequeStatus // Filter by status
	PaymentID *uuid.UUID    // Filter by referenced payment
}

// ChequeRepository defines the interface for cheque persistence
type ChequeRepository interface {
	// FindByID finds a cheque by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Cheque, error)

	// FindByNumber finds a cheque by its unique number (case-sensitive)
	FindByNumber(ctx context.Context, number string) (*Cheque, error)

	// FindAll finds all cheques with filtering
	FindAll(ctx context.Context, filter ChequeFilter) ([]Cheque, error)

	// FindByPaymentRef finds cheques referencing the given payment
	FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) ([]Cheque, error)

	// ExistsByNumber checks if a cheque number is already registered
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// Save creates or updates a cheque
	Save(ctx context.Context, c *Cheque) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, c *Cheque) error

	// Delete removes a cheque
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts cheques with filtering
	Count(ctx context.Context, filter ChequeFilter) (int64, error)
}
