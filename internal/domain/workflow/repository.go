package workflow

import (
	"context"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WorkflowFilter defines filtering options for workflow queries
type WorkflowFilter struct {
	shared.Filter
	Status      *WorkflowStatus // Filter by status
	SubjectType *string         // Filter by subject kind
	ApproverID  *uuid.UUID      // Filter workflows awaiting this approver
}

// WorkflowRepository defines the interface for workflow persistence
type WorkflowRepository interface {
	// FindByID finds a workflow by ID, including its steps
	FindByID(ctx context.Context, id uuid.UUID) (*Workflow, error)

	// FindBySubject finds all workflows attached to an aggregate
	FindBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) ([]Workflow, error)

	// FindActiveBySubject finds the in-progress workflow for an
	// aggregate, if one exists
	FindActiveBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (*Workflow, error)

	// FindAll finds all workflows with filtering
	FindAll(ctx context.Context, filter WorkflowFilter) ([]Workflow, error)

	// Save creates or updates a workflow and its steps
	Save(ctx context.Context, w *Workflow) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, w *Workflow) error

	// Delete removes a workflow
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts workflows with filtering
	Count(ctx context.Context, filter WorkflowFilter) (int64, error)
}
