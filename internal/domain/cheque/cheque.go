package cheque

import (
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChequeStatus represents the lifecycle state of a cheque
type ChequeStatus string

const (
	ChequeStatusEmitted   ChequeStatus = "EMITTED"   // Issued, not yet cleared
	ChequeStatusCleared   ChequeStatus = "CLEARED"   // Cashed by the bank, terminal
	ChequeStatusCancelled ChequeStatus = "CANCELLED" // Voided before clearing, terminal
)

// IsValid checks if the status is a valid ChequeStatus
func (s ChequeStatus) IsValid() bool {
	switch s {
	case ChequeStatusEmitted, ChequeStatusCleared, ChequeStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ChequeStatus
func (s ChequeStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s ChequeStatus) IsTerminal() bool {
	return s == ChequeStatusCleared || s == ChequeStatusCancelled
}

// Cheque represents an issued bank cheque aggregate root.
// The cheque number is unique across the registry (case-sensitive);
// uniqueness is enforced at issue time by the issuing service against
// the repository.
type Cheque struct {
	shared.BaseAggregateRoot
	Number    string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Payee     string          `gorm:"type:varchar(200)"`
	IssuedAt  time.Time       `gorm:"not null"`
	PaidAt    *time.Time      // Set exactly once, on clearing
	Status    ChequeStatus    `gorm:"type:varchar(20);not null;default:'EMITTED';index"`
	PaymentID *uuid.UUID      `gorm:"type:uuid;index"` // Weak reference to the payment it settles
	IssuedBy  uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (Cheque) TableName() string {
	return "cheques"
}

// NewCheque issues a new cheque in EMITTED status
func NewCheque(number string, amount valueobject.Money, payee string, issuedBy uuid.UUID, issuedAt time.Time) (*Cheque, error) {
	if number == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cheque number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cheque number cannot exceed 50 characters")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Cheque amount must be positive")
	}
	if issuedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Issuing user ID is required")
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	c := &Cheque{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Amount:            amount.Amount(),
		Payee:             payee,
		IssuedAt:          issuedAt,
		Status:            ChequeStatusEmitted,
		IssuedBy:          issuedBy,
	}

	c.AddDomainEvent(NewChequeIssuedEvent(c))

	return c, nil
}

// Clear marks the cheque as cashed. Only EMITTED cheques can clear;
// PaidAt is stamped exactly once.
func (c *Cheque) Clear(now time.Time) error {
	if c.Status != ChequeStatusEmitted {
		return shared.NewDomainError(shared.CodeIllegalTransition, fmt.Sprintf("Cannot clear a cheque in %s status", c.Status))
	}

	paidAt := now
	c.Status = ChequeStatusCleared
	c.PaidAt = &paidAt
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewChequeClearedEvent(c))

	return nil
}

// Cancel voids the cheque. Only EMITTED cheques can be cancelled.
func (c *Cheque) Cancel(now time.Time) error {
	if c.Status != ChequeStatusEmitted {
		return shared.NewDomainError(shared.CodeIllegalTransition, fmt.Sprintf("Cannot cancel a cheque in %s status", c.Status))
	}

	c.Status = ChequeStatusCancelled
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewChequeCancelledEvent(c))

	return nil
}

// AttachPayment links the cheque to the payment it settles (weak reference)
func (c *Cheque) AttachPayment(paymentID uuid.UUID) error {
	if paymentID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payment ID cannot be empty")
	}
	if c.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Cannot modify a cheque in terminal state")
	}

	c.PaymentID = &paymentID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// DetachPayment nulls the payment reference. Invoked when the referenced
// payment is removed or cancelled; the cheque itself is never deleted.
func (c *Cheque) DetachPayment() bool {
	if c.PaymentID == nil {
		return false
	}

	c.PaymentID = nil
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return true
}

// GetAmountMoney returns the cheque amount as Money
func (c *Cheque) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(c.Amount)
}

// IsCleared returns true if the cheque has been cashed
func (c *Cheque) IsCleared() bool {
	return c.Status == ChequeStatusCleared
}
