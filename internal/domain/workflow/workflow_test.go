package workflow

import (
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testChain struct {
	workflow  *Workflow
	approvers []*identity.User
	table     *identity.PermissionTable
}

// newTestChain builds a three step workflow: financial director, rector,
// admin, each bound to its own approver identity.
func newTestChain(t *testing.T) *testChain {
	t.Helper()

	director, err := identity.NewUser("ana.costa", "Ana Costa", identity.RoleFinancialDirector)
	require.NoError(t, err)
	rector, err := identity.NewUser("rui.matos", "Rui Matos", identity.RoleRector)
	require.NoError(t, err)
	admin, err := identity.NewUser("root.admin", "Admin", identity.RoleAdmin)
	require.NoError(t, err)

	w, err := NewWorkflow("Payment", uuid.New(), uuid.New(), []StepSpec{
		{Role: identity.RoleFinancialDirector, ApproverID: director.ID},
		{Role: identity.RoleRector, ApproverID: rector.ID},
		{Role: identity.RoleAdmin, ApproverID: admin.ID},
	})
	require.NoError(t, err)

	return &testChain{
		workflow:  w,
		approvers: []*identity.User{director, rector, admin},
		table:     identity.DefaultPermissionTable(),
	}
}

func (c *testChain) decide(stepIndex int, actor *identity.User, decision Decision) error {
	_, err := c.workflow.Decide(stepIndex, actor, c.table, decision, "", DefaultDecidePolicy(), time.Now())
	return err
}

func TestNewWorkflow(t *testing.T) {
	t.Run("initiates with all steps pending", func(t *testing.T) {
		c := newTestChain(t)
		assert.Equal(t, WorkflowStatusInProgress, c.workflow.Status)
		assert.Equal(t, 0, c.workflow.CurrentStep)
		assert.Equal(t, 3, c.workflow.StepCount())
		for _, step := range c.workflow.Steps {
			assert.Equal(t, StepStatusPending, step.Status)
		}
		assert.NotEmpty(t, c.workflow.GetDomainEvents())
	})

	t.Run("rejects empty step list", func(t *testing.T) {
		_, err := NewWorkflow("Payment", uuid.New(), uuid.New(), nil)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects step without approver", func(t *testing.T) {
		_, err := NewWorkflow("Payment", uuid.New(), uuid.New(), []StepSpec{
			{Role: identity.RoleRector, ApproverID: uuid.Nil},
		})
		require.Error(t, err)
	})
}

func TestWorkflow_Decide_InOrderApproval(t *testing.T) {
	c := newTestChain(t)

	// Approve step 0, the chain advances
	require.NoError(t, c.decide(0, c.approvers[0], DecisionApprove))
	assert.Equal(t, 1, c.workflow.CurrentStep)
	assert.Equal(t, StepStatusApproved, c.workflow.Steps[0].Status)
	require.NotNil(t, c.workflow.Steps[0].DecidedAt)
	assert.Equal(t, WorkflowStatusInProgress, c.workflow.Status)

	// Skipping ahead to step 2 is out of order
	err := c.decide(2, c.approvers[2], DecisionApprove)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeOutOfOrder))
	assert.Equal(t, StepStatusPending, c.workflow.Steps[2].Status)

	// Approving 1 then 2 completes the chain
	require.NoError(t, c.decide(1, c.approvers[1], DecisionApprove))
	require.NoError(t, c.decide(2, c.approvers[2], DecisionApprove))
	assert.Equal(t, WorkflowStatusApproved, c.workflow.Status)
	assert.True(t, c.workflow.IsApproved())
	assert.Nil(t, c.workflow.CurrentStepRef())
}

func TestWorkflow_Decide_Rejection(t *testing.T) {
	c := newTestChain(t)
	require.NoError(t, c.decide(0, c.approvers[0], DecisionApprove))

	// Rejection at step 1 terminates the chain immediately
	require.NoError(t, c.decide(1, c.approvers[1], DecisionReject))
	assert.Equal(t, WorkflowStatusRejected, c.workflow.Status)
	assert.Equal(t, StepStatusRejected, c.workflow.Steps[1].Status)

	// No later decision succeeds once terminal
	err := c.decide(2, c.approvers[2], DecisionApprove)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyTerminal))
	assert.Equal(t, StepStatusPending, c.workflow.Steps[2].Status)
}

func TestWorkflow_Decide_Terminal(t *testing.T) {
	c := newTestChain(t)
	require.NoError(t, c.decide(0, c.approvers[0], DecisionApprove))
	require.NoError(t, c.decide(1, c.approvers[1], DecisionApprove))
	require.NoError(t, c.decide(2, c.approvers[2], DecisionApprove))

	// Approved workflows accept no further decisions, not even re-approval
	err := c.decide(2, c.approvers[2], DecisionApprove)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyTerminal))
}

func TestWorkflow_Decide_Authorization(t *testing.T) {
	t.Run("actor without the role permission is unauthorized", func(t *testing.T) {
		c := newTestChain(t)
		outsider, err := identity.NewUser("pedro.lima", "Pedro Lima", identity.RoleUser)
		require.NoError(t, err)

		err = c.decide(0, outsider, DecisionApprove)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))
	})

	t.Run("identity binding rejects a different user with the same role", func(t *testing.T) {
		c := newTestChain(t)
		otherDirector, err := identity.NewUser("outro.diretor", "Outro Diretor", identity.RoleFinancialDirector)
		require.NoError(t, err)

		err = c.decide(0, otherDirector, DecisionApprove)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))
	})

	t.Run("role-only policy accepts any user with the permission", func(t *testing.T) {
		c := newTestChain(t)
		otherDirector, err := identity.NewUser("outro.diretor", "Outro Diretor", identity.RoleFinancialDirector)
		require.NoError(t, err)

		_, err = c.workflow.Decide(0, otherDirector, c.table, DecisionApprove, "", DecidePolicy{RequireIdentityMatch: false}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, c.workflow.CurrentStep)
	})

	t.Run("nil actor is unauthorized", func(t *testing.T) {
		c := newTestChain(t)
		err := c.decide(0, nil, DecisionApprove)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))
	})
}

func TestWorkflow_Decide_Validation(t *testing.T) {
	c := newTestChain(t)

	t.Run("step index out of range", func(t *testing.T) {
		err := c.decide(5, c.approvers[0], DecisionApprove)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("invalid decision", func(t *testing.T) {
		_, err := c.workflow.Decide(0, c.approvers[0], c.table, Decision("MAYBE"), "", DefaultDecidePolicy(), time.Now())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})
}

func TestWorkflow_NextApproverID(t *testing.T) {
	c := newTestChain(t)
	require.NotNil(t, c.workflow.NextApproverID())
	assert.Equal(t, c.approvers[0].ID, *c.workflow.NextApproverID())

	require.NoError(t, c.decide(0, c.approvers[0], DecisionApprove))
	assert.Equal(t, c.approvers[1].ID, *c.workflow.NextApproverID())

	require.NoError(t, c.decide(1, c.approvers[1], DecisionReject))
	assert.Nil(t, c.workflow.NextApproverID())
}
