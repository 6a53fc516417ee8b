package workflow

import (
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WorkflowInitiatedEvent is raised when an approval workflow starts
type WorkflowInitiatedEvent struct {
	shared.BaseDomainEvent
	WorkflowID  uuid.UUID `json:"workflow_id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   uuid.UUID `json:"subject_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
	StepCount   int       `json:"step_count"`
}

// EventType returns the event type name
func (e *WorkflowInitiatedEvent) EventType() string {
	return "WorkflowInitiated"
}

// NewWorkflowInitiatedEvent creates a new WorkflowInitiatedEvent
func NewWorkflowInitiatedEvent(w *Workflow) *WorkflowInitiatedEvent {
	return &WorkflowInitiatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("WorkflowInitiated", "Workflow", w.ID),
		WorkflowID:      w.ID,
		SubjectType:     w.SubjectType,
		SubjectID:       w.SubjectID,
		RequestedBy:     w.RequestedBy,
		StepCount:       len(w.Steps),
	}
}

// WorkflowStepApprovedEvent is raised when a non-final step is approved.
// NextApproverID designates who is now expected to act.
type WorkflowStepApprovedEvent struct {
	shared.BaseDomainEvent
	WorkflowID     uuid.UUID  `json:"workflow_id"`
	SubjectType    string     `json:"subject_type"`
	SubjectID      uuid.UUID  `json:"subject_id"`
	StepIndex      int        `json:"step_index"`
	NextApproverID *uuid.UUID `json:"next_approver_id,omitempty"`
}

// EventType returns the event type name
func (e *WorkflowStepApprovedEvent) EventType() string {
	return "WorkflowStepApproved"
}

// NewWorkflowStepApprovedEvent creates a new WorkflowStepApprovedEvent
func NewWorkflowStepApprovedEvent(w *Workflow, step *WorkflowStep) *WorkflowStepApprovedEvent {
	return &WorkflowStepApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("WorkflowStepApproved", "Workflow", w.ID),
		WorkflowID:      w.ID,
		SubjectType:     w.SubjectType,
		SubjectID:       w.SubjectID,
		StepIndex:       step.Index,
		NextApproverID:  w.NextApproverID(),
	}
}

// WorkflowApprovedEvent is raised when the final step approves the chain
type WorkflowApprovedEvent struct {
	shared.BaseDomainEvent
	WorkflowID  uuid.UUID `json:"workflow_id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   uuid.UUID `json:"subject_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
}

// EventType returns the event type name
func (e *WorkflowApprovedEvent) EventType() string {
	return "WorkflowApproved"
}

// NewWorkflowApprovedEvent creates a new WorkflowApprovedEvent
func NewWorkflowApprovedEvent(w *Workflow) *WorkflowApprovedEvent {
	return &WorkflowApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("WorkflowApproved", "Workflow", w.ID),
		WorkflowID:      w.ID,
		SubjectType:     w.SubjectType,
		SubjectID:       w.SubjectID,
		RequestedBy:     w.RequestedBy,
	}
}

// WorkflowRejectedEvent is raised when any step is rejected
type WorkflowRejectedEvent struct {
	shared.BaseDomainEvent
	WorkflowID  uuid.UUID `json:"workflow_id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   uuid.UUID `json:"subject_id"`
	StepIndex   int       `json:"step_index"`
	RequestedBy uuid.UUID `json:"requested_by"`
	Comments    string    `json:"comments"`
}

// EventType returns the event type name
func (e *WorkflowRejectedEvent) EventType() string {
	return "WorkflowRejected"
}

// NewWorkflowRejectedEvent creates a new WorkflowRejectedEvent
func NewWorkflowRejectedEvent(w *Workflow, step *WorkflowStep) *WorkflowRejectedEvent {
	return &WorkflowRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("WorkflowRejected", "Workflow", w.ID),
		WorkflowID:      w.ID,
		SubjectType:     w.SubjectType,
		SubjectID:       w.SubjectID,
		StepIndex:       step.Index,
		RequestedBy:     w.RequestedBy,
		Comments:        step.Comments,
	}
}
