package payment

import (
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // Outstanding balance > 0, not past due
	PaymentStatusPaid      PaymentStatus = "PAID"      // Fully settled, pending amount = 0
	PaymentStatusOverdue   PaymentStatus = "OVERDUE"   // Outstanding balance > 0 and past due date
	PaymentStatusCancelled PaymentStatus = "CANCELLED" // Cancelled before full settlement
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further settlements can be applied
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}

// PaymentMethod represents how a payment is settled
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodDirectDebit  PaymentMethod = "DIRECT_DEBIT"
	PaymentMethodCashFund     PaymentMethod = "CASH_FUND"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodDirectDebit,
		PaymentMethodCashFund, PaymentMethodOther:
		return true
	}
	return false
}

// PartialPayment represents one settlement applied against a payment's
// outstanding balance, tracked individually for audit purposes
type PartialPayment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method    PaymentMethod   `gorm:"type:varchar(30);not null" json:"method"`
	Reference string          `gorm:"type:varchar(100)" json:"reference"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
}

// TableName returns the table name for GORM
func (PartialPayment) TableName() string {
	return "partial_payments"
}

// NewPartialPayment creates a new partial payment record
func NewPartialPayment(paymentID uuid.UUID, amount valueobject.Money, method PaymentMethod, reference string, paidAt time.Time) *PartialPayment {
	return &PartialPayment{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Amount:    amount.Amount(),
		Method:    method,
		Reference: reference,
		PaidAt:    paidAt,
	}
}

// GetAmountMoney returns the amount as Money value object
func (p *PartialPayment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.Amount)
}

// Payment represents a payment obligation aggregate root.
// It owns its partial payment list; pending amount and status are always
// derived from the original amount and the partials, never stored
// independently of them.
type Payment struct {
	shared.BaseAggregateRoot
	Reference       string           `gorm:"type:varchar(100);not null;index"`
	Description     string           `gorm:"type:varchar(500)"`
	OriginalAmount  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	PendingAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // Derived: original - sum(partials)
	DueDate         time.Time        `gorm:"not null;index"`
	PaidAt          *time.Time       // Set exactly once, when the balance clears
	Status          PaymentStatus    `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Method          PaymentMethod    `gorm:"type:varchar(30);not null"`
	FundID          *uuid.UUID       `gorm:"type:uuid;index"` // Weak reference to a cash fund
	ChequeID        *uuid.UUID       `gorm:"type:uuid;index"` // Weak reference to a cheque
	RequestedBy     uuid.UUID        `gorm:"type:uuid;not null;index"`
	PartialPayments []PartialPayment `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new payment obligation
func NewPayment(
	reference string,
	description string,
	amount valueobject.Money,
	dueDate time.Time,
	method PaymentMethod,
	requestedBy uuid.UUID,
) (*Payment, error) {
	if reference == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment reference cannot be empty")
	}
	if len(reference) > 100 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment reference cannot exceed 100 characters")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Due date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment method is not valid")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Requesting user ID is required")
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         reference,
		Description:       description,
		OriginalAmount:    amount.Amount(),
		PendingAmount:     amount.Amount(),
		DueDate:           dueDate,
		Status:            PaymentStatusPending,
		Method:            method,
		RequestedBy:       requestedBy,
		PartialPayments:   make([]PartialPayment, 0),
	}

	p.AddDomainEvent(NewPaymentCreatedEvent(p))

	return p, nil
}

// RegisterPartialPayment applies a settlement against the outstanding
// balance. Clearing the balance marks the payment paid and stamps PaidAt.
// Returns the partial payment record created.
func (p *Payment) RegisterPartialPayment(amount valueobject.Money, method PaymentMethod, reference string, now time.Time) (*PartialPayment, error) {
	if p.Status.IsTerminal() {
		return nil, shared.NewDomainError(shared.CodeIllegalTransition, fmt.Sprintf("Cannot register a payment in %s status", p.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Partial payment amount must be positive")
	}
	if amount.Amount().GreaterThan(p.PendingAmount) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("Partial payment amount %s exceeds pending amount %s", amount.Amount().StringFixed(2), p.PendingAmount.StringFixed(2)))
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment method is not valid")
	}

	record := NewPartialPayment(p.ID, amount, method, reference, now)
	p.PartialPayments = append(p.PartialPayments, *record)

	p.recomputePending()

	if p.PendingAmount.IsZero() {
		paidAt := now
		p.Status = PaymentStatusPaid
		p.PaidAt = &paidAt
		p.AddDomainEvent(NewPaymentPaidEvent(p))
	} else {
		p.AddDomainEvent(NewPartialPaymentRegisteredEvent(p, record))
	}

	p.UpdatedAt = now
	p.IncrementVersion()

	return record, nil
}

// Cancel cancels the payment. Fully paid payments cannot be cancelled.
// Cross-references to funds and cheques are detached, never deleted.
func (p *Payment) Cancel(now time.Time) error {
	if p.Status == PaymentStatusPaid {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Cannot cancel a fully paid payment")
	}
	if p.Status == PaymentStatusCancelled {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Payment is already cancelled")
	}

	previousStatus := p.Status
	p.Status = PaymentStatusCancelled
	p.FundID = nil
	p.ChequeID = nil
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentCancelledEvent(p, previousStatus))

	return nil
}

// RecomputeState derives the current status from the pending amount and
// the due date. Idempotent and safe to invoke redundantly; invoked on
// read paths and explicit maintenance sweeps.
func (p *Payment) RecomputeState(now time.Time) PaymentStatus {
	p.recomputePending()

	switch {
	case p.Status == PaymentStatusCancelled:
		// Terminal, date-independent
	case p.PendingAmount.IsZero():
		p.Status = PaymentStatusPaid
	case now.After(p.DueDate):
		p.Status = PaymentStatusOverdue
	default:
		p.Status = PaymentStatusPending
	}

	return p.Status
}

// AttachFund links the payment to a cash fund by id (weak reference)
func (p *Payment) AttachFund(fundID uuid.UUID) error {
	if fundID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Fund ID cannot be empty")
	}
	if p.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Cannot modify a payment in terminal state")
	}

	p.FundID = &fundID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// AttachCheque links the payment to a cheque by id (weak reference)
func (p *Payment) AttachCheque(chequeID uuid.UUID) error {
	if chequeID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cheque ID cannot be empty")
	}
	if p.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Cannot modify a payment in terminal state")
	}

	p.ChequeID = &chequeID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// UpdateAmount changes the original amount. The amount is immutable once
// partial payments exist.
func (p *Payment) UpdateAmount(amount valueobject.Money) error {
	if len(p.PartialPayments) > 0 {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Cannot change the amount of a payment with registered settlements")
	}
	if p.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeIllegalTransition, "Cannot modify a payment in terminal state")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}

	p.OriginalAmount = amount.Amount()
	p.PendingAmount = amount.Amount()
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// recomputePending re-derives the pending amount from the partial list
func (p *Payment) recomputePending() {
	paid := decimal.Zero
	for _, pp := range p.PartialPayments {
		paid = paid.Add(pp.Amount)
	}
	p.PendingAmount = p.OriginalAmount.Sub(paid)
}

// Helper methods

// GetOriginalAmountMoney returns the original amount as Money
func (p *Payment) GetOriginalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.OriginalAmount)
}

// GetPendingAmountMoney returns the pending amount as Money
func (p *Payment) GetPendingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.PendingAmount)
}

// PaidAmount returns the total settled so far
func (p *Payment) PaidAmount() decimal.Decimal {
	return p.OriginalAmount.Sub(p.PendingAmount)
}

// IsPaid returns true if the payment is fully settled
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// IsCancelled returns true if the payment is cancelled
func (p *Payment) IsCancelled() bool {
	return p.Status == PaymentStatusCancelled
}

// IsOverdue returns true if the payment is past due and unsettled
func (p *Payment) IsOverdue(now time.Time) bool {
	return !p.Status.IsTerminal() && p.PendingAmount.GreaterThan(decimal.Zero) && now.After(p.DueDate)
}

// SettlementCount returns the number of partial payments applied
func (p *Payment) SettlementCount() int {
	return len(p.PartialPayments)
}
