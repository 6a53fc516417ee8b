package workflow

import (
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WorkflowStatus represents the state of an approval workflow
type WorkflowStatus string

const (
	WorkflowStatusInProgress WorkflowStatus = "IN_PROGRESS"
	WorkflowStatusApproved   WorkflowStatus = "APPROVED" // All steps approved, terminal
	WorkflowStatusRejected   WorkflowStatus = "REJECTED" // Any step rejected, terminal
)

// IsValid checks if the status is a valid WorkflowStatus
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusInProgress, WorkflowStatusApproved, WorkflowStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of WorkflowStatus
func (s WorkflowStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further decisions are possible
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusApproved || s == WorkflowStatusRejected
}

// StepStatus represents the state of one approval step
type StepStatus string

const (
	StepStatusPending  StepStatus = "PENDING"
	StepStatusApproved StepStatus = "APPROVED"
	StepStatusRejected StepStatus = "REJECTED"
)

// Decision is the outcome an approver applies to a step
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// IsValid checks if the decision is valid
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// WorkflowStep represents one step in the ordered approval chain
type WorkflowStep struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	WorkflowID uuid.UUID     `gorm:"type:uuid;not null;index" json:"workflow_id"`
	Index      int           `gorm:"column:step_index;not null" json:"index"`
	Role       identity.Role `gorm:"type:varchar(30);not null" json:"role"`
	ApproverID uuid.UUID     `gorm:"type:uuid;not null" json:"approver_id"`
	Status     StepStatus    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty"`
	DecidedBy  *uuid.UUID    `gorm:"type:uuid" json:"decided_by,omitempty"`
	Comments   string        `gorm:"type:varchar(1000)" json:"comments"`
}

// TableName returns the table name for GORM
func (WorkflowStep) TableName() string {
	return "workflow_steps"
}

// StepSpec describes one step when initiating a workflow
type StepSpec struct {
	Role       identity.Role
	ApproverID uuid.UUID
}

// DecidePolicy controls how an acting user is bound to a step's approver.
// The default requires the actor to be the designated approver; role-only
// mode accepts any user holding the step role's approve permission.
type DecidePolicy struct {
	RequireIdentityMatch bool
}

// DefaultDecidePolicy binds decisions to the designated approver identity
func DefaultDecidePolicy() DecidePolicy {
	return DecidePolicy{RequireIdentityMatch: true}
}

// Workflow represents a sequential approval chain aggregate root attached
// to a payment or fund action. Steps are decided strictly in index order;
// approving the last step approves the workflow, a rejection anywhere
// terminates it immediately. Terminal workflows are never reset; running
// the approval again means initiating a new instance.
type Workflow struct {
	shared.BaseAggregateRoot
	SubjectType string         `gorm:"type:varchar(50);not null;index"` // Aggregate kind under approval, e.g. "Payment"
	SubjectID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status      WorkflowStatus `gorm:"type:varchar(20);not null;default:'IN_PROGRESS';index"`
	CurrentStep int            `gorm:"not null;default:0"` // Index of the first undecided step
	RequestedBy uuid.UUID      `gorm:"type:uuid;not null"`
	Steps       []WorkflowStep `gorm:"foreignKey:WorkflowID;references:ID"`
}

// TableName returns the table name for GORM
func (Workflow) TableName() string {
	return "workflows"
}

// NewWorkflow initiates an approval workflow with the given ordered steps
func NewWorkflow(subjectType string, subjectID uuid.UUID, requestedBy uuid.UUID, specs []StepSpec) (*Workflow, error) {
	if subjectType == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Workflow subject type cannot be empty")
	}
	if subjectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Workflow subject ID is required")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Requesting user ID is required")
	}
	if len(specs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Workflow requires at least one approval step")
	}

	w := &Workflow{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SubjectType:       subjectType,
		SubjectID:         subjectID,
		Status:            WorkflowStatusInProgress,
		CurrentStep:       0,
		RequestedBy:       requestedBy,
		Steps:             make([]WorkflowStep, 0, len(specs)),
	}

	for i, spec := range specs {
		if !spec.Role.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Step %d has an invalid role", i))
		}
		if spec.ApproverID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Step %d has no designated approver", i))
		}
		w.Steps = append(w.Steps, WorkflowStep{
			ID:         uuid.New(),
			WorkflowID: w.ID,
			Index:      i,
			Role:       spec.Role,
			ApproverID: spec.ApproverID,
			Status:     StepStatusPending,
		})
	}

	w.AddDomainEvent(NewWorkflowInitiatedEvent(w))

	return w, nil
}

// Decide applies an approve or reject decision to a step. The acting
// user must hold the approve permission for the step's role and, under
// the default policy, be the step's designated approver. Steps resolve
// strictly in index order. Returns the decided step.
func (w *Workflow) Decide(
	stepIndex int,
	actor *identity.User,
	table *identity.PermissionTable,
	decision Decision,
	comments string,
	policy DecidePolicy,
	now time.Time,
) (*WorkflowStep, error) {
	if w.Status.IsTerminal() {
		return nil, shared.NewDomainError(shared.CodeAlreadyTerminal, fmt.Sprintf("Workflow is already %s", w.Status))
	}
	if stepIndex < 0 || stepIndex >= len(w.Steps) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Step index %d is out of range", stepIndex))
	}
	if !decision.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Decision must be APPROVE or REJECT")
	}

	step := &w.Steps[stepIndex]

	if actor == nil || !table.Authorize(actor, identity.ApprovePermissionForRole(step.Role)) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "User is not allowed to decide this step")
	}
	if policy.RequireIdentityMatch && actor.ID != step.ApproverID {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "User is not the designated approver for this step")
	}
	if stepIndex != w.CurrentStep {
		return nil, shared.NewDomainError(shared.CodeOutOfOrder, fmt.Sprintf("Step %d cannot be decided before step %d resolves", stepIndex, w.CurrentStep))
	}

	decidedAt := now
	actorID := actor.ID
	step.DecidedAt = &decidedAt
	step.DecidedBy = &actorID
	step.Comments = comments

	switch decision {
	case DecisionApprove:
		step.Status = StepStatusApproved
		if stepIndex == len(w.Steps)-1 {
			w.Status = WorkflowStatusApproved
			w.AddDomainEvent(NewWorkflowApprovedEvent(w))
		} else {
			w.CurrentStep++
			w.AddDomainEvent(NewWorkflowStepApprovedEvent(w, step))
		}
	case DecisionReject:
		step.Status = StepStatusRejected
		w.Status = WorkflowStatusRejected
		w.AddDomainEvent(NewWorkflowRejectedEvent(w, step))
	}

	w.UpdatedAt = now
	w.IncrementVersion()

	return step, nil
}

// CurrentStepRef returns the step awaiting decision, or nil when the
// workflow is terminal
func (w *Workflow) CurrentStepRef() *WorkflowStep {
	if w.Status.IsTerminal() || w.CurrentStep >= len(w.Steps) {
		return nil
	}
	return &w.Steps[w.CurrentStep]
}

// NextApproverID returns the approver of the step awaiting decision
func (w *Workflow) NextApproverID() *uuid.UUID {
	step := w.CurrentStepRef()
	if step == nil {
		return nil
	}
	return &step.ApproverID
}

// IsApproved returns true if all steps were approved
func (w *Workflow) IsApproved() bool {
	return w.Status == WorkflowStatusApproved
}

// IsRejected returns true if any step was rejected
func (w *Workflow) IsRejected() bool {
	return w.Status == WorkflowStatusRejected
}

// StepCount returns the number of steps in the chain
func (w *Workflow) StepCount() int {
	return len(w.Steps)
}
