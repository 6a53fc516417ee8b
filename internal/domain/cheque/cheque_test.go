package cheque

import (
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCheque(t *testing.T) *Cheque {
	t.Helper()
	c, err := NewCheque("0001234567", valueobject.NewMoneyEURFromFloat(850), "Fornecedor Lda", uuid.New(), time.Now())
	require.NoError(t, err)
	return c
}

func TestNewCheque(t *testing.T) {
	t.Run("issues cheque in emitted status", func(t *testing.T) {
		c := newTestCheque(t)
		assert.Equal(t, ChequeStatusEmitted, c.Status)
		assert.Nil(t, c.PaidAt)
		assert.Nil(t, c.PaymentID)
		assert.NotEmpty(t, c.GetDomainEvents())
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewCheque("", valueobject.NewMoneyEURFromFloat(10), "", uuid.New(), time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewCheque("0001", valueobject.ZeroEUR(), "", uuid.New(), time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})
}

func TestCheque_Clear(t *testing.T) {
	t.Run("emitted cheque clears and stamps paid at once", func(t *testing.T) {
		c := newTestCheque(t)
		now := time.Now()

		require.NoError(t, c.Clear(now))
		assert.Equal(t, ChequeStatusCleared, c.Status)
		require.NotNil(t, c.PaidAt)
		assert.Equal(t, now, *c.PaidAt)
	})

	t.Run("cleared cheque cannot clear again", func(t *testing.T) {
		c := newTestCheque(t)
		first := time.Now()
		require.NoError(t, c.Clear(first))

		err := c.Clear(first.Add(time.Hour))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
		// PaidAt keeps the first clearing timestamp
		assert.Equal(t, first, *c.PaidAt)
	})

	t.Run("cancelled cheque cannot clear", func(t *testing.T) {
		c := newTestCheque(t)
		require.NoError(t, c.Cancel(time.Now()))

		err := c.Clear(time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
		assert.Nil(t, c.PaidAt)
	})
}

func TestCheque_Cancel(t *testing.T) {
	t.Run("emitted cheque cancels", func(t *testing.T) {
		c := newTestCheque(t)
		require.NoError(t, c.Cancel(time.Now()))
		assert.Equal(t, ChequeStatusCancelled, c.Status)
	})

	t.Run("terminal cheques reject cancel", func(t *testing.T) {
		cleared := newTestCheque(t)
		require.NoError(t, cleared.Clear(time.Now()))
		require.Error(t, cleared.Cancel(time.Now()))

		cancelled := newTestCheque(t)
		require.NoError(t, cancelled.Cancel(time.Now()))
		require.Error(t, cancelled.Cancel(time.Now()))
	})
}

func TestCheque_PaymentReference(t *testing.T) {
	t.Run("attach and detach weak reference", func(t *testing.T) {
		c := newTestCheque(t)
		paymentID := uuid.New()

		require.NoError(t, c.AttachPayment(paymentID))
		require.NotNil(t, c.PaymentID)
		assert.Equal(t, paymentID, *c.PaymentID)

		assert.True(t, c.DetachPayment())
		assert.Nil(t, c.PaymentID)

		// Detaching again is a no-op
		assert.False(t, c.DetachPayment())
	})

	t.Run("cannot attach to terminal cheque", func(t *testing.T) {
		c := newTestCheque(t)
		require.NoError(t, c.Clear(time.Now()))

		err := c.AttachPayment(uuid.New())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
	})
}
