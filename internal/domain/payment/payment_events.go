package payment

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCreatedEvent is raised when a new payment obligation is created
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"due_date"`
	Method    PaymentMethod   `json:"method"`
}

// EventType returns the event type name
func (e *PaymentCreatedEvent) EventType() string {
	return "PaymentCreated"
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCreated", "Payment", p.ID),
		PaymentID:       p.ID,
		Reference:       p.Reference,
		Amount:          p.OriginalAmount,
		DueDate:         p.DueDate,
		Method:          p.Method,
	}
}

// PartialPaymentRegisteredEvent is raised when a settlement is applied
// without clearing the balance
type PartialPaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	PaymentID        uuid.UUID       `json:"payment_id"`
	Reference        string          `json:"reference"`
	PartialPaymentID uuid.UUID       `json:"partial_payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
	Method           PaymentMethod   `json:"method"`
}

// EventType returns the event type name
func (e *PartialPaymentRegisteredEvent) EventType() string {
	return "PartialPaymentRegistered"
}

// NewPartialPaymentRegisteredEvent creates a new PartialPaymentRegisteredEvent
func NewPartialPaymentRegisteredEvent(p *Payment, record *PartialPayment) *PartialPaymentRegisteredEvent {
	return &PartialPaymentRegisteredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PartialPaymentRegistered", "Payment", p.ID),
		PaymentID:        p.ID,
		Reference:        p.Reference,
		PartialPaymentID: record.ID,
		Amount:           record.Amount,
		PendingAmount:    p.PendingAmount,
		Method:           record.Method,
	}
}

// PaymentPaidEvent is raised when a settlement clears the balance
type PaymentPaidEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *PaymentPaidEvent) EventType() string {
	return "PaymentPaid"
}

// NewPaymentPaidEvent creates a new PaymentPaidEvent
func NewPaymentPaidEvent(p *Payment) *PaymentPaidEvent {
	paidAt := time.Now()
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	return &PaymentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentPaid", "Payment", p.ID),
		PaymentID:       p.ID,
		Reference:       p.Reference,
		Amount:          p.OriginalAmount,
		PaidAt:          paidAt,
	}
}

// PaymentCancelledEvent is raised when a payment is cancelled
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	Reference      string          `json:"reference"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	PreviousStatus PaymentStatus   `json:"previous_status"`
}

// EventType returns the event type name
func (e *PaymentCancelledEvent) EventType() string {
	return "PaymentCancelled"
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment, previousStatus PaymentStatus) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCancelled", "Payment", p.ID),
		PaymentID:       p.ID,
		Reference:       p.Reference,
		PendingAmount:   p.PendingAmount,
		PreviousStatus:  previousStatus,
	}
}
