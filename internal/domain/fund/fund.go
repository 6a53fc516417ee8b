package fund

import (
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the direction of a fund movement
type MovementType string

const (
	MovementTypeEntry      MovementType = "ENTRY"      // Money into the fund (entrada)
	MovementTypeWithdrawal MovementType = "WITHDRAWAL" // Money out of the fund (saida)
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	return t == MovementTypeEntry || t == MovementTypeWithdrawal
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// FundMovement represents one discrete movement against a cash fund
type FundMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	FundID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"fund_id"`
	Type        MovementType    `gorm:"type:varchar(20);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	PaymentID   *uuid.UUID      `gorm:"type:uuid;index" json:"payment_id,omitempty"` // Weak reference to the originating payment
	OccurredAt  time.Time       `gorm:"not null" json:"occurred_at"`
}

// TableName returns the table name for GORM
func (FundMovement) TableName() string {
	return "fund_movements"
}

// Delta returns the signed contribution of this movement to the balance
func (m *FundMovement) Delta() decimal.Decimal {
	if m.Type == MovementTypeWithdrawal {
		return m.Amount.Neg()
	}
	return m.Amount
}

// FundPolicy controls the balance rules applied to a cash fund
type FundPolicy struct {
	AllowNegativeOpening bool `json:"allow_negative_opening"`
	AllowOverdraft       bool `json:"allow_overdraft"`
}

// CashFund represents a petty-cash float (fundo de maneio) aggregate root.
// It owns its movement list; the closing balance is always recomputed
// from the opening balance and the movements, never trusted as a stored
// field that can drift.
type CashFund struct {
	shared.BaseAggregateRoot
	Name           string          `gorm:"type:varchar(200);not null"`
	ReferenceMonth time.Time       `gorm:"not null;index"` // First day of the month this float covers
	OpeningBalance decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ClosingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Derived: opening + Σ(entries) − Σ(withdrawals)
	AllowOverdraft bool            `gorm:"not null;default:false"`
	Movements      []FundMovement  `gorm:"foreignKey:FundID;references:ID"`
}

// TableName returns the table name for GORM
func (CashFund) TableName() string {
	return "cash_funds"
}

// NewCashFund creates a new cash fund for a reference month.
// Negative opening balances are rejected unless the policy allows them.
func NewCashFund(name string, referenceMonth time.Time, openingBalance valueobject.Money, policy FundPolicy) (*CashFund, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Fund name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Fund name cannot exceed 200 characters")
	}
	if referenceMonth.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reference month is required")
	}
	if openingBalance.IsNegative() && !policy.AllowNegativeOpening {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Opening balance cannot be negative")
	}

	month := time.Date(referenceMonth.Year(), referenceMonth.Month(), 1, 0, 0, 0, 0, referenceMonth.Location())

	f := &CashFund{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ReferenceMonth:    month,
		OpeningBalance:    openingBalance.Amount(),
		ClosingBalance:    openingBalance.Amount(),
		AllowOverdraft:    policy.AllowOverdraft,
		Movements:         make([]FundMovement, 0),
	}

	f.AddDomainEvent(NewFundCreatedEvent(f))

	return f, nil
}

// AddMovement records a movement against the fund. A withdrawal that
// would drive the balance negative is rejected unless overdraft is
// allowed for this fund. Returns the movement created.
func (f *CashFund) AddMovement(movementType MovementType, amount valueobject.Money, description string, paymentID *uuid.UUID, now time.Time) (*FundMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Movement type is not valid")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Movement amount must be positive")
	}

	if movementType == MovementTypeWithdrawal && !f.AllowOverdraft {
		projected := f.balanceFromMovements().Sub(amount.Amount())
		if projected.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInsufficientFunds, fmt.Sprintf("Withdrawal of %s exceeds available balance %s", amount.Amount().StringFixed(2), f.ClosingBalance.StringFixed(2)))
		}
	}

	movement := &FundMovement{
		ID:          uuid.New(),
		FundID:      f.ID,
		Type:        movementType,
		Amount:      amount.Amount(),
		Description: description,
		PaymentID:   paymentID,
		OccurredAt:  now,
	}
	f.Movements = append(f.Movements, *movement)

	f.recomputeClosing()
	f.UpdatedAt = now
	f.IncrementVersion()

	f.AddDomainEvent(NewFundMovementAddedEvent(f, movement))

	return movement, nil
}

// RemoveMovement deletes a movement and reverses its balance delta
// exactly. Removing an entry that would drive the balance negative is
// rejected under the no-overdraft policy.
func (f *CashFund) RemoveMovement(movementID uuid.UUID, now time.Time) error {
	idx := -1
	for i := range f.Movements {
		if f.Movements[i].ID == movementID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainError(shared.CodeNotFound, "Movement not found in this fund")
	}

	removed := f.Movements[idx]

	if removed.Type == MovementTypeEntry && !f.AllowOverdraft {
		projected := f.balanceFromMovements().Sub(removed.Amount)
		if projected.IsNegative() {
			return shared.NewDomainError(shared.CodeInsufficientFunds, "Removing this entry would drive the balance negative")
		}
	}

	f.Movements = append(f.Movements[:idx], f.Movements[idx+1:]...)

	f.recomputeClosing()
	f.UpdatedAt = now
	f.IncrementVersion()

	f.AddDomainEvent(NewFundMovementRemovedEvent(f, &removed))

	return nil
}

// DetachPayment nulls the payment reference on any movement pointing at
// the given payment. Movements themselves are never cascade-deleted.
func (f *CashFund) DetachPayment(paymentID uuid.UUID) int {
	detached := 0
	for i := range f.Movements {
		if f.Movements[i].PaymentID != nil && *f.Movements[i].PaymentID == paymentID {
			f.Movements[i].PaymentID = nil
			detached++
		}
	}
	if detached > 0 {
		f.UpdatedAt = time.Now()
		f.IncrementVersion()
	}
	return detached
}

// RecomputeBalance re-derives the closing balance from the movement
// list. Idempotent; invoked after rehydration from a snapshot.
func (f *CashFund) RecomputeBalance() decimal.Decimal {
	f.recomputeClosing()
	return f.ClosingBalance
}

// FindMovement returns the movement with the given id, or nil
func (f *CashFund) FindMovement(movementID uuid.UUID) *FundMovement {
	for i := range f.Movements {
		if f.Movements[i].ID == movementID {
			return &f.Movements[i]
		}
	}
	return nil
}

// GetClosingBalanceMoney returns the closing balance as Money
func (f *CashFund) GetClosingBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(f.ClosingBalance)
}

// MovementCount returns the number of movements recorded
func (f *CashFund) MovementCount() int {
	return len(f.Movements)
}

// balanceFromMovements derives the balance from opening + movement deltas
func (f *CashFund) balanceFromMovements() decimal.Decimal {
	balance := f.OpeningBalance
	for i := range f.Movements {
		balance = balance.Add(f.Movements[i].Delta())
	}
	return balance
}

func (f *CashFund) recomputeClosing() {
	f.ClosingBalance = f.balanceFromMovements()
}
