package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshot is a full export of every entity collection. Derived fields
// are included for inspection but are never trusted on import.
type Snapshot struct {
	ExportedAt    time.Time                   `json:"exported_at"`
	Users         []identity.User             `json:"users"`
	Payments      []payment.Payment           `json:"payments"`
	Funds         []fund.CashFund             `json:"funds"`
	Cheques       []cheque.Cheque             `json:"cheques"`
	Workflows     []workflow.Workflow         `json:"workflows"`
	Notifications []notification.Notification `json:"notifications"`
}

// ImportSummary reports what an import did
type ImportSummary struct {
	Users         int `json:"users"`
	Payments      int `json:"payments"`
	Funds         int `json:"funds"`
	Cheques       int `json:"cheques"`
	Workflows     int `json:"workflows"`
	Notifications int `json:"notifications"`
	Purged        int `json:"purged"`    // Stored rows absent from the snapshot, deleted on import
	Rederived     int `json:"rederived"` // Aggregates whose stored derived fields had drifted
}

// BackupService exports and restores full snapshots of all collections
type BackupService struct {
	userRepo         identity.UserRepository
	paymentRepo      payment.PaymentRepository
	fundRepo         fund.FundRepository
	chequeRepo       cheque.ChequeRepository
	workflowRepo     workflow.WorkflowRepository
	notificationRepo notification.NotificationRepository
	permissions      *identity.PermissionTable
	auditor          audit.Recorder
	txManager        shared.TransactionManager
	logger           *zap.Logger
}

// NewBackupService creates a new BackupService
func NewBackupService(
	userRepo identity.UserRepository,
	paymentRepo payment.PaymentRepository,
	fundRepo fund.FundRepository,
	chequeRepo cheque.ChequeRepository,
	workflowRepo workflow.WorkflowRepository,
	notificationRepo notification.NotificationRepository,
	permissions *identity.PermissionTable,
	auditor audit.Recorder,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *BackupService {
	return &BackupService{
		userRepo:         userRepo,
		paymentRepo:      paymentRepo,
		fundRepo:         fundRepo,
		chequeRepo:       chequeRepo,
		workflowRepo:     workflowRepo,
		notificationRepo: notificationRepo,
		permissions:      permissions,
		auditor:          auditor,
		txManager:        txManager,
		logger:           logger,
	}
}

// Export reads every collection into a snapshot
func (s *BackupService) Export(ctx context.Context, actorID uuid.UUID) (*Snapshot, error) {
	actor, err := s.authorize(ctx, actorID, identity.PermBackupExport)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{ExportedAt: time.Now()}

	if snapshot.Users, err = s.userRepo.FindAll(ctx, identity.UserFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if snapshot.Payments, err = s.paymentRepo.FindAll(ctx, payment.PaymentFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export payments: %w", err)
	}
	if snapshot.Funds, err = s.fundRepo.FindAll(ctx, fund.FundFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export funds: %w", err)
	}
	if snapshot.Cheques, err = s.chequeRepo.FindAll(ctx, cheque.ChequeFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export cheques: %w", err)
	}
	if snapshot.Workflows, err = s.workflowRepo.FindAll(ctx, workflow.WorkflowFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export workflows: %w", err)
	}
	if snapshot.Notifications, err = s.notificationRepo.FindAll(ctx, notification.NotificationFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export notifications: %w", err)
	}

	if err := s.recordAudit(ctx, "backup.exported", actor.ID, fmt.Sprintf("%d payments, %d funds, %d cheques exported",
		len(snapshot.Payments), len(snapshot.Funds), len(snapshot.Cheques))); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot exported",
		zap.Int("payments", len(snapshot.Payments)),
		zap.Int("funds", len(snapshot.Funds)),
		zap.Int("cheques", len(snapshot.Cheques)),
		zap.Int("workflows", len(snapshot.Workflows)))

	return snapshot, nil
}

// Import restores the collections from a snapshot in one transaction.
// Each collection is replaced wholesale: stored rows the snapshot does
// not carry are deleted, so restoring an older snapshot never leaves a
// merged state. Stored derived fields are never trusted: pending
// amounts, statuses and closing balances are recomputed from the owned
// lists on load.
func (s *BackupService) Import(ctx context.Context, snapshot *Snapshot, actorID uuid.UUID) (*ImportSummary, error) {
	actor, err := s.authorize(ctx, actorID, identity.PermBackupImport)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Snapshot is required")
	}

	summary := &ImportSummary{}
	now := time.Now()

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if summary.Purged, err = s.purgeAbsent(ctx, snapshot); err != nil {
			return err
		}

		for i := range snapshot.Users {
			if err := s.userRepo.Save(ctx, &snapshot.Users[i]); err != nil {
				return fmt.Errorf("failed to import user %s: %w", snapshot.Users[i].Username, err)
			}
			summary.Users++
		}

		for i := range snapshot.Payments {
			p := &snapshot.Payments[i]
			storedPending := p.PendingAmount
			storedStatus := p.Status
			p.RecomputeState(now)
			if !p.PendingAmount.Equal(storedPending) || p.Status != storedStatus {
				summary.Rederived++
				s.logger.Warn("payment derived fields drifted in snapshot, re-derived",
					zap.String("payment_id", p.ID.String()),
					zap.String("stored_pending", storedPending.String()),
					zap.String("derived_pending", p.PendingAmount.String()))
			}
			if err := s.paymentRepo.Save(ctx, p); err != nil {
				return fmt.Errorf("failed to import payment %s: %w", p.Reference, err)
			}
			summary.Payments++
		}

		for i := range snapshot.Funds {
			f := &snapshot.Funds[i]
			storedClosing := f.ClosingBalance
			if !f.RecomputeBalance().Equal(storedClosing) {
				summary.Rederived++
				s.logger.Warn("fund closing balance drifted in snapshot, re-derived",
					zap.String("fund_id", f.ID.String()),
					zap.String("stored", storedClosing.String()),
					zap.String("derived", f.ClosingBalance.String()))
			}
			if err := s.fundRepo.Save(ctx, f); err != nil {
				return fmt.Errorf("failed to import fund %s: %w", f.Name, err)
			}
			summary.Funds++
		}

		for i := range snapshot.Cheques {
			c := &snapshot.Cheques[i]
			if !c.Status.IsValid() {
				return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Cheque %s has an invalid status", c.Number))
			}
			if err := s.chequeRepo.Save(ctx, c); err != nil {
				return fmt.Errorf("failed to import cheque %s: %w", c.Number, err)
			}
			summary.Cheques++
		}

		for i := range snapshot.Workflows {
			w := &snapshot.Workflows[i]
			if !w.Status.IsValid() {
				return shared.NewDomainError(shared.CodeInvalidInput, "Workflow has an invalid status")
			}
			if err := s.workflowRepo.Save(ctx, w); err != nil {
				return fmt.Errorf("failed to import workflow: %w", err)
			}
			summary.Workflows++
		}

		for i := range snapshot.Notifications {
			if err := s.notificationRepo.Save(ctx, &snapshot.Notifications[i]); err != nil {
				return fmt.Errorf("failed to import notification: %w", err)
			}
			summary.Notifications++
		}

		return s.recordAudit(ctx, "backup.imported", actor.ID, fmt.Sprintf("%d payments, %d funds, %d cheques imported, %d purged, %d re-derived",
			summary.Payments, summary.Funds, summary.Cheques, summary.Purged, summary.Rederived))
	}); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot imported",
		zap.Int("payments", summary.Payments),
		zap.Int("purged", summary.Purged),
		zap.Int("rederived", summary.Rederived))

	return summary, nil
}

// purgeAbsent deletes every stored row the snapshot does not carry.
// Without it an import of an older snapshot merges with the current
// state instead of replacing it.
func (s *BackupService) purgeAbsent(ctx context.Context, snapshot *Snapshot) (int, error) {
	keep := make(map[uuid.UUID]struct{})
	for i := range snapshot.Users {
		keep[snapshot.Users[i].ID] = struct{}{}
	}
	for i := range snapshot.Payments {
		keep[snapshot.Payments[i].ID] = struct{}{}
	}
	for i := range snapshot.Funds {
		keep[snapshot.Funds[i].ID] = struct{}{}
	}
	for i := range snapshot.Cheques {
		keep[snapshot.Cheques[i].ID] = struct{}{}
	}
	for i := range snapshot.Workflows {
		keep[snapshot.Workflows[i].ID] = struct{}{}
	}
	for i := range snapshot.Notifications {
		keep[snapshot.Notifications[i].ID] = struct{}{}
	}

	purged := 0
	drop := func(id uuid.UUID, del func(context.Context, uuid.UUID) error) error {
		if _, ok := keep[id]; ok {
			return nil
		}
		if err := del(ctx, id); err != nil {
			return err
		}
		purged++
		return nil
	}

	users, err := s.userRepo.FindAll(ctx, identity.UserFilter{})
	if err != nil {
		return purged, fmt.Errorf("failed to load stored users: %w", err)
	}
	for i := range users {
		if err := drop(users[i].ID, s.userRepo.Delete); err != nil {
			return purged, fmt.Errorf("failed to purge user %s: %w", users[i].Username, err)
		}
	}

	payments, err := s.paymentRepo.FindAll(ctx, payment.PaymentFilter{})
	if err != nil {
		return purged, fmt.Errorf("failed to load stored payments: %w", err)
	}
	for i := range payments {
		if err := drop(payments[i].ID, s.paymentRepo.Delete); err != nil {
			return purged, fmt.Errorf("failed to purge payment %s: %w", payments[i].Reference, err)
		}
	}

	funds, err := s.fundRepo.FindAll(ctx, fund.FundFilter{})
	if err != nil {
		return purged, fmt.Errorf("failed to load stored funds: %w", err)
	}
	for i := range funds {
		if err := drop(funds[i].ID, s.fundRepo.Delete); err != nil {
			return purged, fmt.Errorf("failed to purge fund %s: %w", funds[i].Name, err)
		}
	}

	cheques, err := s.chequeRepo.FindAll(ctx, cheque.ChequeFilter{})
	if err != nil {
		return purged, fmt.Errorf("failed to load stored cheques: %w", err)
	}
	for i := range cheques {
		if err := drop(cheques[i].ID, s.chequeRepo.Delete); err != nil {
			return purged, fmt.Errorf("failed to purge cheque %s: %w", cheques[i].Number, err)
		}
	}

	workflows, err := s.workflowRepo.FindAll(ctx, workflow.WorkflowFilter{})
	if err != nil {
		return purged, fmt.Errorf("failed to load stored workflows: %w", err)
	}
	for i := range workflows {
		if err := drop(workflows[i].ID, s.workflowRepo.Delete); err != nil {
			return purged, fmt.Errorf("failed to purge workflow: %w", err)
		}
	}

	notifications, err := s.notificationRepo.FindAll(ctx, notification.NotificationFilter{})
	if err != nil {
		return purged, fmt.Errorf("failed to load stored notifications: %w", err)
	}
	for i := range notifications {
		if err := drop(notifications[i].ID, s.notificationRepo.Delete); err != nil {
			return purged, fmt.Errorf("failed to purge notification: %w", err)
		}
	}

	return purged, nil
}

func (s *BackupService) authorize(ctx context.Context, actorID uuid.UUID, permission string) (*identity.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, permission) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", permission))
	}
	return actor, nil
}

func (s *BackupService) recordAudit(ctx context.Context, action string, actorID uuid.UUID, detail string) error {
	entry, err := audit.NewAuditEntry("Snapshot", actorID, action, actorID, detail, time.Now())
	if err != nil {
		return err
	}
	return s.auditor.Record(ctx, entry)
}
