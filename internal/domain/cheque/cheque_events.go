package cheque

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChequeIssuedEvent is raised when a cheque is issued
type ChequeIssuedEvent struct {
	shared.BaseDomainEvent
	ChequeID uuid.UUID       `json:"cheque_id"`
	Number   string          `json:"number"`
	Amount   decimal.Decimal `json:"amount"`
	Payee    string          `json:"payee"`
}

// EventType returns the event type name
func (e *ChequeIssuedEvent) EventType() string {
	return "ChequeIssued"
}

// NewChequeIssuedEvent creates a new ChequeIssuedEvent
func NewChequeIssuedEvent(c *Cheque) *ChequeIssuedEvent {
	return &ChequeIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ChequeIssued", "Cheque", c.ID),
		ChequeID:        c.ID,
		Number:          c.Number,
		Amount:          c.Amount,
		Payee:           c.Payee,
	}
}

// ChequeClearedEvent is raised when a cheque is cashed
type ChequeClearedEvent struct {
	shared.BaseDomainEvent
	ChequeID uuid.UUID       `json:"cheque_id"`
	Number   string          `json:"number"`
	Amount   decimal.Decimal `json:"amount"`
	PaidAt   time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *ChequeClearedEvent) EventType() string {
	return "ChequeCleared"
}

// NewChequeClearedEvent creates a new ChequeClearedEvent
func NewChequeClearedEvent(c *Cheque) *ChequeClearedEvent {
	paidAt := time.Now()
	if c.PaidAt != nil {
		paidAt = *c.PaidAt
	}
	return &ChequeClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ChequeCleared", "Cheque", c.ID),
		ChequeID:        c.ID,
		Number:          c.Number,
		Amount:          c.Amount,
		PaidAt:          paidAt,
	}
}

// ChequeCancelledEvent is raised when a cheque is voided
type ChequeCancelledEvent struct {
	shared.BaseDomainEvent
	ChequeID uuid.UUID `json:"cheque_id"`
	Number   string    `json:"number"`
}

// EventType returns the event type name
func (e *ChequeCancelledEvent) EventType() string {
	return "ChequeCancelled"
}

// NewChequeCancelledEvent creates a new ChequeCancelledEvent
func NewChequeCancelledEvent(c *Cheque) *ChequeCancelledEvent {
	return &ChequeCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ChequeCancelled", "Cheque", c.ID),
		ChequeID:        c.ID,
		Number:          c.Number,
	}
}
