package fund

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundCreatedEvent is raised when a new cash fund is opened
type FundCreatedEvent struct {
	shared.BaseDomainEvent
	FundID         uuid.UUID       `json:"fund_id"`
	Name           string          `json:"name"`
	ReferenceMonth time.Time       `json:"reference_month"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// EventType returns the event type name
func (e *FundCreatedEvent) EventType() string {
	return "FundCreated"
}

// NewFundCreatedEvent creates a new FundCreatedEvent
func NewFundCreatedEvent(f *CashFund) *FundCreatedEvent {
	return &FundCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FundCreated", "CashFund", f.ID),
		FundID:          f.ID,
		Name:            f.Name,
		ReferenceMonth:  f.ReferenceMonth,
		OpeningBalance:  f.OpeningBalance,
	}
}

// FundMovementAddedEvent is raised when a movement is recorded
type FundMovementAddedEvent struct {
	shared.BaseDomainEvent
	FundID         uuid.UUID       `json:"fund_id"`
	MovementID     uuid.UUID       `json:"movement_id"`
	MovementType   MovementType    `json:"movement_type"`
	Amount         decimal.Decimal `json:"amount"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// EventType returns the event type name
func (e *FundMovementAddedEvent) EventType() string {
	return "FundMovementAdded"
}

// NewFundMovementAddedEvent creates a new FundMovementAddedEvent
func NewFundMovementAddedEvent(f *CashFund, m *FundMovement) *FundMovementAddedEvent {
	return &FundMovementAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FundMovementAdded", "CashFund", f.ID),
		FundID:          f.ID,
		MovementID:      m.ID,
		MovementType:    m.Type,
		Amount:          m.Amount,
		ClosingBalance:  f.ClosingBalance,
	}
}

// FundMovementRemovedEvent is raised when a movement is removed and its
// balance delta reversed
type FundMovementRemovedEvent struct {
	shared.BaseDomainEvent
	FundID         uuid.UUID       `json:"fund_id"`
	MovementID     uuid.UUID       `json:"movement_id"`
	MovementType   MovementType    `json:"movement_type"`
	Amount         decimal.Decimal `json:"amount"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// EventType returns the event type name
func (e *FundMovementRemovedEvent) EventType() string {
	return "FundMovementRemoved"
}

// NewFundMovementRemovedEvent creates a new FundMovementRemovedEvent
func NewFundMovementRemovedEvent(f *CashFund, m *FundMovement) *FundMovementRemovedEvent {
	return &FundMovementRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FundMovementRemoved", "CashFund", f.ID),
		FundID:          f.ID,
		MovementID:      m.ID,
		MovementType:    m.Type,
		Amount:          m.Amount,
		ClosingBalance:  f.ClosingBalance,
	}
}
