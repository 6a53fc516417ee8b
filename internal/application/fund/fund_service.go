package fund

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FundService orchestrates cash fund operations
type FundService struct {
	fundRepo    fund.FundRepository
	userRepo    identity.UserRepository
	permissions *identity.PermissionTable
	auditor     audit.Recorder
	eventBus    shared.EventPublisher
	txManager   shared.TransactionManager
	logger      *zap.Logger
}

// NewFundService creates a new FundService
func NewFundService(
	fundRepo fund.FundRepository,
	userRepo identity.UserRepository,
	permissions *identity.PermissionTable,
	auditor audit.Recorder,
	eventBus shared.EventPublisher,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *FundService {
	return &FundService{
		fundRepo:    fundRepo,
		userRepo:    userRepo,
		permissions: permissions,
		auditor:     auditor,
		eventBus:    eventBus,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateFundRequest represents a request to open a cash fund
type CreateFundRequest struct {
	Name           string
	ReferenceMonth time.Time
	OpeningBalance decimal.Decimal
	Policy         fund.FundPolicy
	ActorID        uuid.UUID
}

// AddMovementRequest represents a request to record a fund movement
type AddMovementRequest struct {
	FundID      uuid.UUID
	Type        fund.MovementType
	Amount      decimal.Decimal
	Description string
	PaymentID   *uuid.UUID
	ActorID     uuid.UUID
}

// CreateFund opens a new cash fund
func (s *FundService) CreateFund(ctx context.Context, req CreateFundRequest) (*fund.CashFund, error) {
	actor, err := s.authorize(ctx, req.ActorID, identity.PermFundCreate)
	if err != nil {
		return nil, err
	}

	f, err := fund.NewCashFund(req.Name, req.ReferenceMonth, valueobject.NewMoneyEUR(req.OpeningBalance), req.Policy)
	if err != nil {
		return nil, err
	}

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.fundRepo.Save(ctx, f); err != nil {
			return fmt.Errorf("failed to save fund: %w", err)
		}
		return s.recordAudit(ctx, f.ID, "fund.created", actor.ID, fmt.Sprintf("Fund %s opened with %s", f.Name, f.GetClosingBalanceMoney()))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, f)
	s.logger.Info("cash fund created",
		zap.String("fund_id", f.ID.String()),
		zap.String("name", f.Name))

	return f, nil
}

// AddMovement records a movement against a fund
func (s *FundService) AddMovement(ctx context.Context, req AddMovementRequest) (*fund.FundMovement, error) {
	actor, err := s.authorize(ctx, req.ActorID, identity.PermFundManage)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var f *fund.CashFund
	var movement *fund.FundMovement

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		f, err = s.loadFund(ctx, req.FundID)
		if err != nil {
			return err
		}

		movement, err = f.AddMovement(req.Type, valueobject.NewMoneyEUR(req.Amount), req.Description, req.PaymentID, now)
		if err != nil {
			return err
		}

		if err := s.fundRepo.SaveWithLock(ctx, f); err != nil {
			return err
		}
		return s.recordAudit(ctx, f.ID, "fund.movement_added", actor.ID,
			fmt.Sprintf("%s of %s, balance now %s", movement.Type, movement.Amount.StringFixed(2), f.ClosingBalance.StringFixed(2)))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, f)

	return movement, nil
}

// RemoveMovement removes a movement and reverses its balance delta
func (s *FundService) RemoveMovement(ctx context.Context, fundID, movementID, actorID uuid.UUID) (*fund.CashFund, error) {
	actor, err := s.authorize(ctx, actorID, identity.PermFundManage)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var f *fund.CashFund

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		f, err = s.loadFund(ctx, fundID)
		if err != nil {
			return err
		}

		if err := f.RemoveMovement(movementID, now); err != nil {
			return err
		}

		if err := s.fundRepo.SaveWithLock(ctx, f); err != nil {
			return err
		}
		return s.recordAudit(ctx, f.ID, "fund.movement_removed", actor.ID,
			fmt.Sprintf("Movement %s removed, balance now %s", movementID, f.ClosingBalance.StringFixed(2)))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, f)

	return f, nil
}

// GetFund loads a fund with its movements
func (s *FundService) GetFund(ctx context.Context, fundID, actorID uuid.UUID) (*fund.CashFund, error) {
	if _, err := s.authorize(ctx, actorID, identity.PermFundRead); err != nil {
		return nil, err
	}
	return s.loadFund(ctx, fundID)
}

// ListFunds lists funds with filtering
func (s *FundService) ListFunds(ctx context.Context, actorID uuid.UUID, filter fund.FundFilter) (shared.Paginated[fund.CashFund], error) {
	var empty shared.Paginated[fund.CashFund]
	if _, err := s.authorize(ctx, actorID, identity.PermFundRead); err != nil {
		return empty, err
	}

	items, err := s.fundRepo.FindAll(ctx, filter)
	if err != nil {
		return empty, err
	}
	total, err := s.fundRepo.Count(ctx, filter)
	if err != nil {
		return empty, err
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *FundService) loadFund(ctx context.Context, id uuid.UUID) (*fund.CashFund, error) {
	f, err := s.fundRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Fund not found")
	}
	return f, nil
}

func (s *FundService) authorize(ctx context.Context, actorID uuid.UUID, permission string) (*identity.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, permission) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", permission))
	}
	return actor, nil
}

func (s *FundService) recordAudit(ctx context.Context, fundID uuid.UUID, action string, actorID uuid.UUID, detail string) error {
	entry, err := audit.NewAuditEntry("CashFund", fundID, action, actorID, detail, time.Now())
	if err != nil {
		return err
	}
	return s.auditor.Record(ctx, entry)
}

func (s *FundService) publishEvents(ctx context.Context, f *fund.CashFund) {
	events := f.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	f.ClearDomainEvents()
}
