package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid inputs", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), EUR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
		assert.Equal(t, EUR, m.Currency())
	})

	t.Run("fails with empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(10), "")
		require.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("adds amounts with same currency", func(t *testing.T) {
		a := NewMoneyEURFromFloat(100)
		b := NewMoneyEURFromFloat(50.25)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromFloat(150.25)))
	})

	t.Run("fails to add different currencies", func(t *testing.T) {
		a := NewMoneyEURFromFloat(100)
		b, _ := NewMoney(decimal.NewFromInt(10), USD)
		_, err := a.Add(b)
		require.Error(t, err)
	})

	t.Run("subtracts amounts", func(t *testing.T) {
		a := NewMoneyEURFromFloat(100)
		b := NewMoneyEURFromFloat(40)
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(60)))
	})

	t.Run("negates amount", func(t *testing.T) {
		m := NewMoneyEURFromFloat(25)
		assert.True(t, m.Negate().Amount().Equal(decimal.NewFromInt(-25)))
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyEURFromFloat(10)
	b := NewMoneyEURFromFloat(20)

	t.Run("less than", func(t *testing.T) {
		less, err := a.LessThan(b)
		require.NoError(t, err)
		assert.True(t, less)
	})

	t.Run("greater than", func(t *testing.T) {
		greater, err := b.GreaterThan(a)
		require.NoError(t, err)
		assert.True(t, greater)
	})

	t.Run("equals", func(t *testing.T) {
		assert.True(t, a.Equals(NewMoneyEURFromFloat(10)))
		assert.False(t, a.Equals(b))
	})

	t.Run("zero checks", func(t *testing.T) {
		assert.True(t, ZeroEUR().IsZero())
		assert.True(t, a.IsPositive())
		assert.True(t, a.Negate().IsNegative())
	})
}

func TestMoney_JSON(t *testing.T) {
	t.Run("round trips through JSON", func(t *testing.T) {
		original := NewMoneyEURFromFloat(123.45)
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Money
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, original.Equals(decoded))
	})

	t.Run("rejects malformed amount", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"abc","currency":"EUR"}`), &m)
		require.Error(t, err)
	})
}

func TestMoney_Scan(t *testing.T) {
	t.Run("scans string value", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("42.50"))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(42.50)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scans nil as zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})
}
