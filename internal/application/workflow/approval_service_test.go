package workflow

import (
	"context"
	"testing"

	"github.com/fintrack/backend/internal/application/apptest"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type approvalFixture struct {
	service    *ApprovalService
	workflows  *apptest.MemoryWorkflowRepo
	dispatcher *apptest.CapturingDispatcher
	requester  *identity.User
	director   *identity.User
	rector     *identity.User
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()

	requester, err := identity.NewUser("joao.silva", "João Silva", identity.RoleUser)
	require.NoError(t, err)
	require.NoError(t, requester.AddToGroup("payments"))
	director, err := identity.NewUser("ana.costa", "Ana Costa", identity.RoleFinancialDirector)
	require.NoError(t, err)
	rector, err := identity.NewUser("rui.matos", "Rui Matos", identity.RoleRector)
	require.NoError(t, err)

	users := apptest.NewMemoryUserRepo()
	users.Seed(requester, director, rector)

	f := &approvalFixture{
		workflows:  apptest.NewMemoryWorkflowRepo(),
		dispatcher: &apptest.CapturingDispatcher{},
		requester:  requester,
		director:   director,
		rector:     rector,
	}
	f.service = NewApprovalService(
		f.workflows, users, identity.DefaultPermissionTable(),
		apptest.NewMemoryNotificationRepo(), f.dispatcher,
		&apptest.MemoryAuditor{}, &apptest.MemoryEventBus{}, apptest.NoopTxManager{},
		workflow.DefaultDecidePolicy(), zap.NewNop(),
	)
	return f
}

func (f *approvalFixture) initiate(t *testing.T) *workflow.Workflow {
	t.Helper()
	w, err := f.service.InitiateApproval(context.Background(), InitiateRequest{
		SubjectType: "Payment",
		SubjectID:   uuid.New(),
		Steps: []StepInput{
			{Role: identity.RoleFinancialDirector, ApproverID: f.director.ID},
			{Role: identity.RoleRector, ApproverID: f.rector.ID},
		},
		ActorID: f.requester.ID,
	})
	require.NoError(t, err)
	return w
}

func (f *approvalFixture) sentTypes() []notification.NotificationType {
	types := make([]notification.NotificationType, 0, len(f.dispatcher.Sent))
	for _, n := range f.dispatcher.Sent {
		types = append(types, n.Type)
	}
	return types
}

func TestApprovalService_InitiateApproval(t *testing.T) {
	t.Run("notifies the first approver", func(t *testing.T) {
		f := newApprovalFixture(t)
		w := f.initiate(t)

		assert.Equal(t, workflow.WorkflowStatusInProgress, w.Status)
		require.Len(t, f.dispatcher.Sent, 1)
		assert.Equal(t, notification.TypePaymentApproval, f.dispatcher.Sent[0].Type)
		assert.Equal(t, f.director.ID.String(), f.dispatcher.Sent[0].TargetUser)
	})

	t.Run("second active workflow per subject is rejected", func(t *testing.T) {
		f := newApprovalFixture(t)
		w := f.initiate(t)

		_, err := f.service.InitiateApproval(context.Background(), InitiateRequest{
			SubjectType: "Payment",
			SubjectID:   w.SubjectID,
			Steps:       []StepInput{{Role: identity.RoleRector, ApproverID: f.rector.ID}},
			ActorID:     f.requester.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeDuplicateKey))
	})

	t.Run("requester without initiate permission is rejected", func(t *testing.T) {
		f := newApprovalFixture(t)
		outsider, err := identity.NewUser("pedro.lima", "Pedro Lima", identity.RoleUser)
		require.NoError(t, err)
		users := apptest.NewMemoryUserRepo()
		users.Seed(outsider)
		svc := NewApprovalService(
			apptest.NewMemoryWorkflowRepo(), users, identity.DefaultPermissionTable(),
			apptest.NewMemoryNotificationRepo(), f.dispatcher,
			&apptest.MemoryAuditor{}, &apptest.MemoryEventBus{}, apptest.NoopTxManager{},
			workflow.DefaultDecidePolicy(), zap.NewNop(),
		)

		_, err = svc.InitiateApproval(context.Background(), InitiateRequest{
			SubjectType: "Payment",
			SubjectID:   uuid.New(),
			Steps:       []StepInput{{Role: identity.RoleRector, ApproverID: f.rector.ID}},
			ActorID:     outsider.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))
	})
}

func TestApprovalService_Decide(t *testing.T) {
	t.Run("full approval chain notifies at each hop", func(t *testing.T) {
		f := newApprovalFixture(t)
		w := f.initiate(t)

		updated, err := f.service.Decide(context.Background(), DecideRequest{
			WorkflowID: w.ID,
			StepIndex:  0,
			Decision:   workflow.DecisionApprove,
			ActorID:    f.director.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.CurrentStep)

		updated, err = f.service.Decide(context.Background(), DecideRequest{
			WorkflowID: w.ID,
			StepIndex:  1,
			Decision:   workflow.DecisionApprove,
			ActorID:    f.rector.ID,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsApproved())

		// initiate -> approval(step 1) -> approved(final)
		types := f.sentTypes()
		require.Len(t, types, 3)
		assert.Equal(t, notification.TypePaymentApproval, types[1])
		assert.Equal(t, f.rector.ID.String(), f.dispatcher.Sent[1].TargetUser)
		assert.Equal(t, notification.TypePaymentApproved, types[2])
		assert.Equal(t, f.requester.ID.String(), f.dispatcher.Sent[2].TargetUser)
	})

	t.Run("rejection notifies the requester and halts", func(t *testing.T) {
		f := newApprovalFixture(t)
		w := f.initiate(t)

		updated, err := f.service.Decide(context.Background(), DecideRequest{
			WorkflowID: w.ID,
			StepIndex:  0,
			Decision:   workflow.DecisionReject,
			Comments:   "Orçamento esgotado",
			ActorID:    f.director.ID,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsRejected())

		last := f.dispatcher.Sent[len(f.dispatcher.Sent)-1]
		assert.Equal(t, notification.TypePaymentRejected, last.Type)
		assert.Equal(t, f.requester.ID.String(), last.TargetUser)

		// Later steps are dead after rejection
		_, err = f.service.Decide(context.Background(), DecideRequest{
			WorkflowID: w.ID,
			StepIndex:  1,
			Decision:   workflow.DecisionApprove,
			ActorID:    f.rector.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyTerminal))
	})

	t.Run("out of order decision is rejected and not persisted", func(t *testing.T) {
		f := newApprovalFixture(t)
		w := f.initiate(t)

		_, err := f.service.Decide(context.Background(), DecideRequest{
			WorkflowID: w.ID,
			StepIndex:  1,
			Decision:   workflow.DecisionApprove,
			ActorID:    f.rector.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeOutOfOrder))

		stored, err := f.workflows.FindByID(context.Background(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.CurrentStep)
		assert.Equal(t, workflow.StepStatusPending, stored.Steps[1].Status)
	})

	t.Run("terminal workflow can be re-initiated as a new instance", func(t *testing.T) {
		f := newApprovalFixture(t)
		w := f.initiate(t)

		_, err := f.service.Decide(context.Background(), DecideRequest{
			WorkflowID: w.ID,
			StepIndex:  0,
			Decision:   workflow.DecisionReject,
			ActorID:    f.director.ID,
		})
		require.NoError(t, err)

		fresh, err := f.service.InitiateApproval(context.Background(), InitiateRequest{
			SubjectType: "Payment",
			SubjectID:   w.SubjectID,
			Steps:       []StepInput{{Role: identity.RoleFinancialDirector, ApproverID: f.director.ID}},
			ActorID:     f.requester.ID,
		})
		require.NoError(t, err)
		assert.NotEqual(t, w.ID, fresh.ID)
		assert.Equal(t, workflow.WorkflowStatusInProgress, fresh.Status)
	})
}
