package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq int

// setupTestDB opens an isolated in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:persistence_test_%d?mode=memory&cache=shared", testDBSeq)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&identity.User{},
		&payment.Payment{},
		&payment.PartialPayment{},
		&fund.CashFund{},
		&fund.FundMovement{},
		&cheque.Cheque{},
		&workflow.Workflow{},
		&workflow.WorkflowStep{},
		&notification.Notification{},
		&audit.AuditEntry{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func newStoredPayment(t *testing.T) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment("FAT-2025-100", "Material de escritorio",
		valueobject.NewMoneyEURFromFloat(1000), time.Now().AddDate(0, 1, 0),
		payment.PaymentMethodBankTransfer, uuid.New())
	require.NoError(t, err)
	return p
}

func TestGormPaymentRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	p := newStoredPayment(t)
	_, err := p.RegisterPartialPayment(valueobject.NewMoneyEURFromFloat(400),
		payment.PaymentMethodBankTransfer, "TRF-001", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Reference, found.Reference)
	assert.True(t, found.PendingAmount.Equal(decimal.NewFromInt(600)))
	require.Len(t, found.PartialPayments, 1)
	assert.True(t, found.PartialPayments[0].Amount.Equal(decimal.NewFromInt(400)))
}

func TestGormPaymentRepository_FindByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestGormPaymentRepository_SaveWithLockConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	p := newStoredPayment(t)
	require.NoError(t, repo.Save(ctx, p))

	// Two readers load the same version
	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = first.RegisterPartialPayment(valueobject.NewMoneyEURFromFloat(100),
		payment.PaymentMethodBankTransfer, "TRF-A", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, first))

	// The stale writer must be rejected
	_, err = second.RegisterPartialPayment(valueobject.NewMoneyEURFromFloat(200),
		payment.PaymentMethodBankTransfer, "TRF-B", time.Now())
	require.NoError(t, err)
	err = repo.SaveWithLock(ctx, second)
	assert.True(t, shared.IsCode(err, shared.CodeConcurrentModification))
}

func TestGormPaymentRepository_FindUnsettledDueBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	overdue, err := payment.NewPayment("FAT-OLD", "Atrasado",
		valueobject.NewMoneyEURFromFloat(300), time.Now().AddDate(0, 0, -10),
		payment.PaymentMethodBankTransfer, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, overdue))

	future := newStoredPayment(t)
	require.NoError(t, repo.Save(ctx, future))

	settled, err := payment.NewPayment("FAT-DONE", "Liquidado",
		valueobject.NewMoneyEURFromFloat(100), time.Now().AddDate(0, 0, -5),
		payment.PaymentMethodBankTransfer, uuid.New())
	require.NoError(t, err)
	_, err = settled.RegisterPartialPayment(valueobject.NewMoneyEURFromFloat(100),
		payment.PaymentMethodBankTransfer, "TRF-X", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, settled))

	due, err := repo.FindUnsettledDueBefore(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "FAT-OLD", due[0].Reference)
}

func TestGormFundRepository_RoundTripWithMovements(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFundRepository(db)
	ctx := context.Background()

	f, err := fund.NewCashFund("Fundo Marco", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		valueobject.NewMoneyEURFromFloat(500), fund.FundPolicy{})
	require.NoError(t, err)
	paymentID := uuid.New()
	_, err = f.AddMovement(fund.MovementTypeWithdrawal, valueobject.NewMoneyEURFromFloat(120),
		"Material", &paymentID, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, f))

	found, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, found.ClosingBalance.Equal(decimal.NewFromInt(380)))
	require.Len(t, found.Movements, 1)

	byMonth, err := repo.FindByMonth(ctx, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, byMonth, 1)

	byRef, err := repo.FindByPaymentRef(ctx, paymentID)
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	assert.Equal(t, f.ID, byRef[0].ID)
}

func TestGormFundRepository_RemoveMovementDeletesRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFundRepository(db)
	ctx := context.Background()

	f, err := fund.NewCashFund("Fundo Maio", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		valueobject.NewMoneyEURFromFloat(500), fund.FundPolicy{})
	require.NoError(t, err)
	_, err = f.AddMovement(fund.MovementTypeEntry, valueobject.NewMoneyEURFromFloat(150),
		"Reforco", nil, time.Now())
	require.NoError(t, err)
	removable, err := f.AddMovement(fund.MovementTypeEntry, valueobject.NewMoneyEURFromFloat(100),
		"Lancado em duplicado", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, f))

	loaded, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Movements, 2)
	require.NoError(t, loaded.RemoveMovement(removable.ID, time.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	// The removed movement must not come back on the next load
	reloaded, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Movements, 1)
	assert.True(t, reloaded.ClosingBalance.Equal(decimal.NewFromInt(650)))
	assert.True(t, reloaded.RecomputeBalance().Equal(decimal.NewFromInt(650)))
}

func TestGormChequeRepository_NumberUniquenessHelpers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChequeRepository(db)
	ctx := context.Background()

	c, err := cheque.NewCheque("000123", valueobject.NewMoneyEURFromFloat(250),
		"Fornecedor Lda", uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	exists, err := repo.ExistsByNumber(ctx, "000123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNumber(ctx, "000124")
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.FindByNumber(ctx, "000123")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	_, err = repo.FindByNumber(ctx, "000124")
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestGormWorkflowRepository_ActiveBySubjectAndStepOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWorkflowRepository(db)
	ctx := context.Background()

	subjectID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	w, err := workflow.NewWorkflow("Payment", subjectID, uuid.New(), []workflow.StepSpec{
		{Role: identity.RoleFinancialDirector, ApproverID: first},
		{Role: identity.RoleRector, ApproverID: second},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, w))

	active, err := repo.FindActiveBySubject(ctx, "Payment", subjectID)
	require.NoError(t, err)
	require.Len(t, active.Steps, 2)
	assert.Equal(t, 0, active.Steps[0].Index)
	assert.Equal(t, first, active.Steps[0].ApproverID)
	assert.Equal(t, 1, active.Steps[1].Index)

	_, err = repo.FindActiveBySubject(ctx, "Payment", uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestGormNotificationRepository_UserScopeIncludesBroadcasts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	personal, err := notification.NewNotification(userID.String(), notification.TypePaymentApproval,
		"Aprovacao pendente", "Tem um pagamento para aprovar", nil, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, personal))

	broadcast, err := notification.NewBroadcast(notification.TypePaymentOverdue,
		"Manutencao", "Sistema indisponivel no sabado", nil, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, broadcast))

	other, err := notification.NewNotification(uuid.New().String(), notification.TypePaymentApproval,
		"Outro", "Nao e seu", nil, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	items, err := repo.FindForUser(ctx, userID.String(), notification.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	count, err := repo.CountUnreadForUser(ctx, userID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	personal.MarkRead(time.Now())
	require.NoError(t, repo.Save(ctx, personal))

	count, err = repo.CountUnreadForUser(ctx, userID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormAuditRepository_AppendAndReadTrail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()

	entityID := uuid.New()
	actorID := uuid.New()
	for i, action := range []string{"payment.created", "payment.partial_registered", "payment.paid"} {
		entry, err := audit.NewAuditEntry("Payment", entityID, action, actorID, "",
			time.Now().Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, entry))
	}

	trail, err := repo.FindByEntity(ctx, "Payment", entityID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "payment.created", trail[0].Action)
	assert.Equal(t, "payment.paid", trail[2].Action)

	count, err := repo.Count(ctx, audit.AuditFilter{ActorID: &actorID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGormTransactionManager_RollbackSpansRepositories(t *testing.T) {
	db := setupTestDB(t)
	txManager := NewGormTransactionManager(db)
	paymentRepo := NewGormPaymentRepository(db)
	fundRepo := NewGormFundRepository(db)
	ctx := context.Background()

	p := newStoredPayment(t)
	f, err := fund.NewCashFund("Fundo Abril", time.Now(),
		valueobject.NewMoneyEURFromFloat(500), fund.FundPolicy{})
	require.NoError(t, err)

	err = txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := paymentRepo.Save(ctx, p); err != nil {
			return err
		}
		if err := fundRepo.Save(ctx, f); err != nil {
			return err
		}
		return shared.ErrInsufficientFunds
	})
	require.Error(t, err)

	// Nothing was committed
	_, err = paymentRepo.FindByID(ctx, p.ID)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	_, err = fundRepo.FindByID(ctx, f.ID)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestGormTransactionManager_CommitPersists(t *testing.T) {
	db := setupTestDB(t)
	txManager := NewGormTransactionManager(db)
	paymentRepo := NewGormPaymentRepository(db)
	ctx := context.Background()

	p := newStoredPayment(t)
	err := txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		return paymentRepo.Save(ctx, p)
	})
	require.NoError(t, err)

	found, err := paymentRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Reference, found.Reference)
}
