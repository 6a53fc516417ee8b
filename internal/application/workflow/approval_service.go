package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalService drives approval workflows and produces the
// notifications their transitions require
type ApprovalService struct {
	workflowRepo     workflow.WorkflowRepository
	userRepo         identity.UserRepository
	permissions      *identity.PermissionTable
	notificationRepo notification.NotificationRepository
	dispatcher       notification.Dispatcher
	auditor          audit.Recorder
	eventBus         shared.EventPublisher
	txManager        shared.TransactionManager
	policy           workflow.DecidePolicy
	logger           *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	workflowRepo workflow.WorkflowRepository,
	userRepo identity.UserRepository,
	permissions *identity.PermissionTable,
	notificationRepo notification.NotificationRepository,
	dispatcher notification.Dispatcher,
	auditor audit.Recorder,
	eventBus shared.EventPublisher,
	txManager shared.TransactionManager,
	policy workflow.DecidePolicy,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		workflowRepo:     workflowRepo,
		userRepo:         userRepo,
		permissions:      permissions,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		auditor:          auditor,
		eventBus:         eventBus,
		txManager:        txManager,
		policy:           policy,
		logger:           logger,
	}
}

// StepInput describes one approval step when initiating
type StepInput struct {
	Role       identity.Role
	ApproverID uuid.UUID
}

// InitiateRequest represents a request to start an approval workflow
type InitiateRequest struct {
	SubjectType string
	SubjectID   uuid.UUID
	Steps       []StepInput
	ActorID     uuid.UUID
}

// DecideRequest represents one approve or reject decision
type DecideRequest struct {
	WorkflowID uuid.UUID
	StepIndex  int
	Decision   workflow.Decision
	Comments   string
	ActorID    uuid.UUID
}

// InitiateApproval starts a new workflow instance for a subject. A
// subject can only carry one in-progress workflow at a time; terminal
// workflows are never reset, re-running means a fresh instance.
func (s *ApprovalService) InitiateApproval(ctx context.Context, req InitiateRequest) (*workflow.Workflow, error) {
	actor, err := s.userRepo.FindByID(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, identity.PermWorkflowInitiate) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", identity.PermWorkflowInitiate))
	}

	specs := make([]workflow.StepSpec, 0, len(req.Steps))
	for _, step := range req.Steps {
		specs = append(specs, workflow.StepSpec{Role: step.Role, ApproverID: step.ApproverID})
	}

	var w *workflow.Workflow

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.workflowRepo.FindActiveBySubject(ctx, req.SubjectType, req.SubjectID)
		if err != nil {
			return err
		}
		if active != nil {
			return shared.NewDomainError(shared.CodeDuplicateKey, "An approval workflow is already in progress for this subject")
		}

		w, err = workflow.NewWorkflow(req.SubjectType, req.SubjectID, actor.ID, specs)
		if err != nil {
			return err
		}

		if err := s.workflowRepo.Save(ctx, w); err != nil {
			return err
		}

		if approverID := w.NextApproverID(); approverID != nil {
			if err := s.notify(ctx, approverID.String(), notification.TypePaymentApproval,
				"Aprovação pendente",
				fmt.Sprintf("A %s approval awaits your decision", req.SubjectType),
				&w.ID); err != nil {
				return err
			}
		}

		return s.recordAudit(ctx, w.ID, "workflow.initiated", actor.ID,
			fmt.Sprintf("Approval workflow with %d steps started for %s", w.StepCount(), req.SubjectType))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, w)
	s.logger.Info("approval workflow initiated",
		zap.String("workflow_id", w.ID.String()),
		zap.String("subject_type", w.SubjectType),
		zap.Int("steps", w.StepCount()))

	return w, nil
}

// Decide applies one approval decision. Under concurrent decides on the
// same step, the optimistic lock lets exactly one commit; the loser
// surfaces a concurrent modification failure.
func (s *ApprovalService) Decide(ctx context.Context, req DecideRequest) (*workflow.Workflow, error) {
	actor, err := s.userRepo.FindByID(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var w *workflow.Workflow

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.loadWorkflow(ctx, req.WorkflowID)
		if err != nil {
			return err
		}

		step, err := w.Decide(req.StepIndex, actor, s.permissions, req.Decision, req.Comments, s.policy, now)
		if err != nil {
			return err
		}

		if err := s.workflowRepo.SaveWithLock(ctx, w); err != nil {
			return err
		}

		switch {
		case w.IsRejected():
			if err := s.notify(ctx, w.RequestedBy.String(), notification.TypePaymentRejected,
				"Pedido rejeitado",
				fmt.Sprintf("Step %d rejected the request: %s", step.Index, step.Comments),
				&w.SubjectID); err != nil {
				return err
			}
		case w.IsApproved():
			if err := s.notify(ctx, w.RequestedBy.String(), notification.TypePaymentApproved,
				"Pedido aprovado",
				fmt.Sprintf("All %d approval steps completed", w.StepCount()),
				&w.SubjectID); err != nil {
				return err
			}
		default:
			if next := w.NextApproverID(); next != nil {
				if err := s.notify(ctx, next.String(), notification.TypePaymentApproval,
					"Aprovação pendente",
					fmt.Sprintf("Step %d awaits your decision", w.CurrentStep),
					&w.ID); err != nil {
					return err
				}
			}
		}

		return s.recordAudit(ctx, w.ID, "workflow.decided", actor.ID,
			fmt.Sprintf("Step %d decided %s, workflow %s", step.Index, req.Decision, w.Status))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, w)

	return w, nil
}

// GetWorkflow loads a workflow with its steps
func (s *ApprovalService) GetWorkflow(ctx context.Context, workflowID, actorID uuid.UUID) (*workflow.Workflow, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, identity.PermWorkflowRead) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", identity.PermWorkflowRead))
	}
	return s.loadWorkflow(ctx, workflowID)
}

// ListWorkflows lists workflows with filtering
func (s *ApprovalService) ListWorkflows(ctx context.Context, actorID uuid.UUID, filter workflow.WorkflowFilter) (shared.Paginated[workflow.Workflow], error) {
	var empty shared.Paginated[workflow.Workflow]
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return empty, err
	}
	if !s.permissions.Authorize(actor, identity.PermWorkflowRead) {
		return empty, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", identity.PermWorkflowRead))
	}

	items, err := s.workflowRepo.FindAll(ctx, filter)
	if err != nil {
		return empty, err
	}
	total, err := s.workflowRepo.Count(ctx, filter)
	if err != nil {
		return empty, err
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *ApprovalService) loadWorkflow(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	w, err := s.workflowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Workflow not found")
	}
	return w, nil
}

// notify persists and dispatches one notification
func (s *ApprovalService) notify(ctx context.Context, target string, notType notification.NotificationType, title, message string, relatedID *uuid.UUID) error {
	n, err := notification.NewNotification(target, notType, title, message, relatedID, "")
	if err != nil {
		return err
	}
	if err := s.notificationRepo.Save(ctx, n); err != nil {
		return err
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		// Delivery failure must not roll back the decision itself
		s.logger.Warn("notification dispatch failed",
			zap.String("target", target),
			zap.Error(err))
	}
	return nil
}

func (s *ApprovalService) recordAudit(ctx context.Context, workflowID uuid.UUID, action string, actorID uuid.UUID, detail string) error {
	entry, err := audit.NewAuditEntry("Workflow", workflowID, action, actorID, detail, time.Now())
	if err != nil {
		return err
	}
	return s.auditor.Record(ctx, entry)
}

func (s *ApprovalService) publishEvents(ctx context.Context, w *workflow.Workflow) {
	events := w.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	w.ClearDomainEvents()
}
