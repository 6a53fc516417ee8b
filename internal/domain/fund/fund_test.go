package fund

import (
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFund(t *testing.T, opening float64, policy FundPolicy) *CashFund {
	t.Helper()
	f, err := NewCashFund(
		"Fundo de Maneio Janeiro",
		time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		valueobject.NewMoneyEURFromFloat(opening),
		policy,
	)
	require.NoError(t, err)
	return f
}

func TestNewCashFund(t *testing.T) {
	t.Run("creates fund with closing equal to opening", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(500)))
		assert.Empty(t, f.Movements)
		// Reference month normalized to the first day
		assert.Equal(t, 1, f.ReferenceMonth.Day())
		assert.NotEmpty(t, f.GetDomainEvents())
	})

	t.Run("rejects negative opening by default", func(t *testing.T) {
		_, err := NewCashFund("Fundo", time.Now(), valueobject.NewMoneyEURFromFloat(-100), FundPolicy{})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})

	t.Run("allows negative opening when policy permits", func(t *testing.T) {
		f, err := NewCashFund("Fundo", time.Now(), valueobject.NewMoneyEURFromFloat(-100), FundPolicy{AllowNegativeOpening: true})
		require.NoError(t, err)
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(-100)))
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCashFund("", time.Now(), valueobject.ZeroEUR(), FundPolicy{})
		require.Error(t, err)
	})
}

func TestCashFund_AddMovement(t *testing.T) {
	t.Run("entry increases closing balance", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		m, err := f.AddMovement(MovementTypeEntry, valueobject.NewMoneyEURFromFloat(200), "Reforço", nil, time.Now())
		require.NoError(t, err)
		assert.Equal(t, f.ID, m.FundID)
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(700)))
	})

	t.Run("withdrawal decreases closing balance", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		_, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(120.50), "Material de escritório", nil, time.Now())
		require.NoError(t, err)
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromFloat(379.50)))
	})

	t.Run("withdrawal exceeding balance fails without overdraft", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		_, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(700), "Demasiado", nil, time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientFunds))

		// Balance and movement list are untouched
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 0, f.MovementCount())
	})

	t.Run("overdraft flag allows negative balance", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{AllowOverdraft: true})
		_, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(700), "Adiantamento", nil, time.Now())
		require.NoError(t, err)
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(-200)))
	})

	t.Run("withdrawal to exactly zero is allowed", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		_, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(500), "Encerramento", nil, time.Now())
		require.NoError(t, err)
		assert.True(t, f.ClosingBalance.IsZero())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		_, err := f.AddMovement(MovementTypeEntry, valueobject.ZeroEUR(), "", nil, time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))

		_, err = f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(-10), "", nil, time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})

	t.Run("rejects invalid movement type", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		_, err := f.AddMovement(MovementType("TRANSFER"), valueobject.NewMoneyEURFromFloat(10), "", nil, time.Now())
		require.Error(t, err)
	})

	t.Run("records weak payment reference", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		paymentID := uuid.New()
		m, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(50), "Pagamento", &paymentID, time.Now())
		require.NoError(t, err)
		require.NotNil(t, m.PaymentID)
		assert.Equal(t, paymentID, *m.PaymentID)
	})
}

func TestCashFund_RemoveMovement(t *testing.T) {
	t.Run("removal reverses the delta exactly", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		m, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(200), "", nil, time.Now())
		require.NoError(t, err)
		require.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(300)))

		require.NoError(t, f.RemoveMovement(m.ID, time.Now()))
		assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 0, f.MovementCount())
	})

	t.Run("removal of absent movement fails", func(t *testing.T) {
		f := newTestFund(t, 500, FundPolicy{})
		err := f.RemoveMovement(uuid.New(), time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("removing an entry that funds later withdrawals fails", func(t *testing.T) {
		f := newTestFund(t, 100, FundPolicy{})
		entry, err := f.AddMovement(MovementTypeEntry, valueobject.NewMoneyEURFromFloat(400), "", nil, time.Now())
		require.NoError(t, err)
		_, err = f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(450), "", nil, time.Now())
		require.NoError(t, err)

		err = f.RemoveMovement(entry.ID, time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientFunds))
		assert.Equal(t, 2, f.MovementCount())
	})
}

func TestCashFund_DetachPayment(t *testing.T) {
	f := newTestFund(t, 500, FundPolicy{})
	paymentID := uuid.New()
	m1, err := f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(50), "", &paymentID, time.Now())
	require.NoError(t, err)
	_, err = f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(30), "", nil, time.Now())
	require.NoError(t, err)

	detached := f.DetachPayment(paymentID)
	assert.Equal(t, 1, detached)
	assert.Nil(t, f.FindMovement(m1.ID).PaymentID)
	// Movement itself survives, only the reference is nulled
	assert.Equal(t, 2, f.MovementCount())
	assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(420)))
}

func TestCashFund_RecomputeBalance(t *testing.T) {
	f := newTestFund(t, 500, FundPolicy{})
	_, err := f.AddMovement(MovementTypeEntry, valueobject.NewMoneyEURFromFloat(100), "", nil, time.Now())
	require.NoError(t, err)
	_, err = f.AddMovement(MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(250), "", nil, time.Now())
	require.NoError(t, err)

	// Simulate a drifted stored value, as after an untrusted restore
	f.ClosingBalance = decimal.NewFromInt(9999)

	got := f.RecomputeBalance()
	assert.True(t, got.Equal(decimal.NewFromInt(350)))
	assert.True(t, f.ClosingBalance.Equal(decimal.NewFromInt(350)))
}
