package cheque

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChequeService orchestrates check registry operations
type ChequeService struct {
	chequeRepo  cheque.ChequeRepository
	userRepo    identity.UserRepository
	permissions *identity.PermissionTable
	auditor     audit.Recorder
	eventBus    shared.EventPublisher
	txManager   shared.TransactionManager
	logger      *zap.Logger
}

// NewChequeService creates a new ChequeService
func NewChequeService(
	chequeRepo cheque.ChequeRepository,
	userRepo identity.UserRepository,
	permissions *identity.PermissionTable,
	auditor audit.Recorder,
	eventBus shared.EventPublisher,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *ChequeService {
	return &ChequeService{
		chequeRepo:  chequeRepo,
		userRepo:    userRepo,
		permissions: permissions,
		auditor:     auditor,
		eventBus:    eventBus,
		txManager:   txManager,
		logger:      logger,
	}
}

// IssueChequeRequest represents a request to issue a cheque
type IssueChequeRequest struct {
	Number    string
	Amount    decimal.Decimal
	Payee     string
	PaymentID *uuid.UUID
	ActorID   uuid.UUID
}

// IssueCheque issues a new cheque. The number must be unique across the
// registry; a duplicate fails and leaves the original untouched.
func (s *ChequeService) IssueCheque(ctx context.Context, req IssueChequeRequest) (*cheque.Cheque, error) {
	actor, err := s.authorize(ctx, req.ActorID, identity.PermChequeIssue)
	if err != nil {
		return nil, err
	}

	var c *cheque.Cheque

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.chequeRepo.ExistsByNumber(ctx, req.Number)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeDuplicateKey, fmt.Sprintf("Cheque number %s is already registered", req.Number))
		}

		c, err = cheque.NewCheque(req.Number, valueobject.NewMoneyEUR(req.Amount), req.Payee, actor.ID, time.Now())
		if err != nil {
			return err
		}
		if req.PaymentID != nil {
			if err := c.AttachPayment(*req.PaymentID); err != nil {
				return err
			}
		}

		if err := s.chequeRepo.Save(ctx, c); err != nil {
			return err
		}
		return s.recordAudit(ctx, c.ID, "cheque.issued", actor.ID, fmt.Sprintf("Cheque %s for %s issued", c.Number, c.GetAmountMoney()))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)
	s.logger.Info("cheque issued",
		zap.String("cheque_id", c.ID.String()),
		zap.String("number", c.Number))

	return c, nil
}

// TransitionState applies a lifecycle transition: EMITTED to CLEARED or
// EMITTED to CANCELLED. Anything else is an illegal transition.
func (s *ChequeService) TransitionState(ctx context.Context, chequeID uuid.UUID, newStatus cheque.ChequeStatus, actorID uuid.UUID) (*cheque.Cheque, error) {
	actor, err := s.authorize(ctx, actorID, identity.PermChequeManage)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var c *cheque.Cheque

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.loadCheque(ctx, chequeID)
		if err != nil {
			return err
		}

		switch newStatus {
		case cheque.ChequeStatusCleared:
			err = c.Clear(now)
		case cheque.ChequeStatusCancelled:
			err = c.Cancel(now)
		case cheque.ChequeStatusEmitted:
			err = shared.NewDomainError(shared.CodeIllegalTransition, "Cheques cannot return to EMITTED")
		default:
			err = shared.NewDomainError(shared.CodeInvalidInput, "Unknown cheque status")
		}
		if err != nil {
			return err
		}

		if err := s.chequeRepo.SaveWithLock(ctx, c); err != nil {
			return err
		}
		return s.recordAudit(ctx, c.ID, "cheque.transitioned", actor.ID, fmt.Sprintf("Cheque %s moved to %s", c.Number, c.Status))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)

	return c, nil
}

// DetachPayment clears the payment reference on every cheque that
// references the given payment. The cheques themselves are kept.
func (s *ChequeService) DetachPayment(ctx context.Context, paymentID uuid.UUID) (int, error) {
	detached := 0
	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		cheques, err := s.chequeRepo.FindByPaymentRef(ctx, paymentID)
		if err != nil {
			return err
		}
		for i := range cheques {
			if cheques[i].DetachPayment() {
				if err := s.chequeRepo.SaveWithLock(ctx, &cheques[i]); err != nil {
					return err
				}
				detached++
			}
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return detached, nil
}

// GetCheque loads a cheque by id
func (s *ChequeService) GetCheque(ctx context.Context, chequeID, actorID uuid.UUID) (*cheque.Cheque, error) {
	if _, err := s.authorize(ctx, actorID, identity.PermChequeRead); err != nil {
		return nil, err
	}
	return s.loadCheque(ctx, chequeID)
}

// ListCheques lists cheques with filtering
func (s *ChequeService) ListCheques(ctx context.Context, actorID uuid.UUID, filter cheque.ChequeFilter) (shared.Paginated[cheque.Cheque], error) {
	var empty shared.Paginated[cheque.Cheque]
	if _, err := s.authorize(ctx, actorID, identity.PermChequeRead); err != nil {
		return empty, err
	}

	items, err := s.chequeRepo.FindAll(ctx, filter)
	if err != nil {
		return empty, err
	}
	total, err := s.chequeRepo.Count(ctx, filter)
	if err != nil {
		return empty, err
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *ChequeService) loadCheque(ctx context.Context, id uuid.UUID) (*cheque.Cheque, error) {
	c, err := s.chequeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Cheque not found")
	}
	return c, nil
}

func (s *ChequeService) authorize(ctx context.Context, actorID uuid.UUID, permission string) (*identity.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, permission) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", permission))
	}
	return actor, nil
}

func (s *ChequeService) recordAudit(ctx context.Context, chequeID uuid.UUID, action string, actorID uuid.UUID, detail string) error {
	entry, err := audit.NewAuditEntry("Cheque", chequeID, action, actorID, detail, time.Now())
	if err != nil {
		return err
	}
	return s.auditor.Record(ctx, entry)
}

func (s *ChequeService) publishEvents(ctx context.Context, c *cheque.Cheque) {
	events := c.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	c.ClearDomainEvents()
}
