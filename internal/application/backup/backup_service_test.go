package backup

import (
	"context"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/application/apptest"
	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type backupFixture struct {
	service  *BackupService
	users    *apptest.MemoryUserRepo
	payments *apptest.MemoryPaymentRepo
	funds    *apptest.MemoryFundRepo
	cheques  *apptest.MemoryChequeRepo
	admin    *identity.User
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()

	admin, err := identity.NewUser("root.admin", "Admin", identity.RoleAdmin)
	require.NoError(t, err)

	f := &backupFixture{
		users:    apptest.NewMemoryUserRepo(),
		payments: apptest.NewMemoryPaymentRepo(),
		funds:    apptest.NewMemoryFundRepo(),
		cheques:  apptest.NewMemoryChequeRepo(),
		admin:    admin,
	}
	f.users.Seed(admin)

	f.service = NewBackupService(
		f.users, f.payments, f.funds, f.cheques,
		apptest.NewMemoryWorkflowRepo(), apptest.NewMemoryNotificationRepo(),
		identity.DefaultPermissionTable(), &apptest.MemoryAuditor{},
		apptest.NoopTxManager{}, zap.NewNop(),
	)
	return f
}

func (f *backupFixture) seedLedgers(t *testing.T) (*payment.Payment, *fund.CashFund) {
	t.Helper()
	ctx := context.Background()

	p, err := payment.NewPayment("FAT-2025-001", "Material", valueobject.NewMoneyEURFromFloat(1000),
		time.Now().AddDate(0, 1, 0), payment.PaymentMethodBankTransfer, f.admin.ID)
	require.NoError(t, err)
	_, err = p.RegisterPartialPayment(valueobject.NewMoneyEURFromFloat(400), payment.PaymentMethodBankTransfer, "TRF-001", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.payments.Save(ctx, p))

	cashFund, err := fund.NewCashFund("Fundo Janeiro", time.Now(), valueobject.NewMoneyEURFromFloat(500), fund.FundPolicy{})
	require.NoError(t, err)
	_, err = cashFund.AddMovement(fund.MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(150), "Material", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.funds.Save(ctx, cashFund))

	chq, err := cheque.NewCheque("000123", valueobject.NewMoneyEURFromFloat(250), "Fornecedor", f.admin.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.cheques.Save(ctx, chq))

	return p, cashFund
}

func TestBackupService_RoundTrip(t *testing.T) {
	source := newBackupFixture(t)
	p, cashFund := source.seedLedgers(t)

	snapshot, err := source.service.Export(context.Background(), source.admin.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Payments, 1)
	require.Len(t, snapshot.Funds, 1)
	require.Len(t, snapshot.Cheques, 1)

	// Restore into a store holding a payment the snapshot does not know
	target := newBackupFixture(t)
	stale, err := payment.NewPayment("FAT-2025-099", "Registado depois do backup",
		valueobject.NewMoneyEURFromFloat(200), time.Now().AddDate(0, 1, 0),
		payment.PaymentMethodBankTransfer, target.admin.ID)
	require.NoError(t, err)
	require.NoError(t, target.payments.Save(context.Background(), stale))

	summary, err := target.service.Import(context.Background(), snapshot, target.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Payments)
	assert.Equal(t, 1, summary.Funds)
	assert.Equal(t, 0, summary.Rederived)

	// Wholesale replace: the stale payment and the target's own admin
	// user are gone, only snapshot rows remain
	assert.GreaterOrEqual(t, summary.Purged, 1)
	gone, err := target.payments.FindByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	remaining, err := target.payments.FindAll(context.Background(), payment.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, p.ID, remaining[0].ID)

	// Derived fields survive the round trip
	restored, err := target.payments.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, restored.PendingAmount.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, payment.PaymentStatusPending, restored.Status)

	restoredFund, err := target.funds.FindByID(context.Background(), cashFund.ID)
	require.NoError(t, err)
	assert.True(t, restoredFund.ClosingBalance.Equal(decimal.NewFromInt(350)))
}

func TestBackupService_ImportRederivesDriftedFields(t *testing.T) {
	source := newBackupFixture(t)
	p, cashFund := source.seedLedgers(t)

	snapshot, err := source.service.Export(context.Background(), source.admin.ID)
	require.NoError(t, err)

	// Tamper with stored derived fields; import must not trust them
	for i := range snapshot.Payments {
		snapshot.Payments[i].PendingAmount = decimal.NewFromInt(9999)
	}
	for i := range snapshot.Funds {
		snapshot.Funds[i].ClosingBalance = decimal.NewFromInt(-1)
	}

	target := newBackupFixture(t)
	summary, err := target.service.Import(context.Background(), snapshot, target.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rederived)

	restored, err := target.payments.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, restored.PendingAmount.Equal(decimal.NewFromInt(600)))

	restoredFund, err := target.funds.FindByID(context.Background(), cashFund.ID)
	require.NoError(t, err)
	assert.True(t, restoredFund.ClosingBalance.Equal(decimal.NewFromInt(350)))
}

func TestBackupService_Authorization(t *testing.T) {
	f := newBackupFixture(t)

	viewer, err := identity.NewUser("pedro.lima", "Pedro Lima", identity.RoleUser)
	require.NoError(t, err)
	f.users.Seed(viewer)

	_, err = f.service.Export(context.Background(), viewer.ID)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))

	_, err = f.service.Import(context.Background(), &Snapshot{}, viewer.ID)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))

	// Group membership unlocks the backup surface
	require.NoError(t, viewer.AddToGroup("backup_operators"))
	f.users.Seed(viewer)

	_, err = f.service.Export(context.Background(), viewer.ID)
	require.NoError(t, err)

	_, err = f.service.Import(context.Background(), nil, viewer.ID)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
}
