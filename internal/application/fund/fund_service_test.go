package fund

import (
	"context"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/application/apptest"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fundFixture struct {
	service  *FundService
	funds    *apptest.MemoryFundRepo
	auditor  *apptest.MemoryAuditor
	director *identity.User
}

func newFundFixture(t *testing.T) *fundFixture {
	t.Helper()

	director, err := identity.NewUser("ana.costa", "Ana Costa", identity.RoleFinancialDirector)
	require.NoError(t, err)

	users := apptest.NewMemoryUserRepo()
	users.Seed(director)

	f := &fundFixture{
		funds:    apptest.NewMemoryFundRepo(),
		auditor:  &apptest.MemoryAuditor{},
		director: director,
	}
	f.service = NewFundService(
		f.funds, users, identity.DefaultPermissionTable(),
		f.auditor, &apptest.MemoryEventBus{}, apptest.NoopTxManager{}, zap.NewNop(),
	)
	return f
}

func (f *fundFixture) createFund(t *testing.T, opening float64) *fund.CashFund {
	t.Helper()
	created, err := f.service.CreateFund(context.Background(), CreateFundRequest{
		Name:           "Fundo de Maneio",
		ReferenceMonth: time.Now(),
		OpeningBalance: decimal.NewFromFloat(opening),
		ActorID:        f.director.ID,
	})
	require.NoError(t, err)
	return created
}

func TestFundService_CreateFund(t *testing.T) {
	t.Run("creates and persists fund", func(t *testing.T) {
		f := newFundFixture(t)
		created := f.createFund(t, 500)

		stored, err := f.funds.FindByID(context.Background(), created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.ClosingBalance.Equal(decimal.NewFromInt(500)))
		assert.Contains(t, f.auditor.Actions(), "fund.created")
	})

	t.Run("negative opening is rejected by default policy", func(t *testing.T) {
		f := newFundFixture(t)
		_, err := f.service.CreateFund(context.Background(), CreateFundRequest{
			Name:           "Fundo",
			ReferenceMonth: time.Now(),
			OpeningBalance: decimal.NewFromInt(-50),
			ActorID:        f.director.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})
}

func TestFundService_Movements(t *testing.T) {
	t.Run("add and remove round trip", func(t *testing.T) {
		f := newFundFixture(t)
		created := f.createFund(t, 500)

		movement, err := f.service.AddMovement(context.Background(), AddMovementRequest{
			FundID:  created.ID,
			Type:    fund.MovementTypeWithdrawal,
			Amount:  decimal.NewFromInt(120),
			ActorID: f.director.ID,
		})
		require.NoError(t, err)

		stored, err := f.funds.FindByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, stored.ClosingBalance.Equal(decimal.NewFromInt(380)))

		updated, err := f.service.RemoveMovement(context.Background(), created.ID, movement.ID, f.director.ID)
		require.NoError(t, err)
		assert.True(t, updated.ClosingBalance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("overdraft rejection leaves stored fund untouched", func(t *testing.T) {
		f := newFundFixture(t)
		created := f.createFund(t, 500)

		_, err := f.service.AddMovement(context.Background(), AddMovementRequest{
			FundID:  created.ID,
			Type:    fund.MovementTypeWithdrawal,
			Amount:  decimal.NewFromInt(700),
			ActorID: f.director.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientFunds))

		stored, err := f.funds.FindByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, stored.ClosingBalance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 0, stored.MovementCount())
	})

	t.Run("unknown fund yields not found", func(t *testing.T) {
		f := newFundFixture(t)
		_, err := f.service.AddMovement(context.Background(), AddMovementRequest{
			FundID:  uuid.New(),
			Type:    fund.MovementTypeEntry,
			Amount:  decimal.NewFromInt(10),
			ActorID: f.director.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})
}
