package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService orchestrates payment ledger operations, including the
// cross-ledger emissions into the fund float and the check registry.
type PaymentService struct {
	paymentRepo payment.PaymentRepository
	fundRepo    fund.FundRepository
	chequeRepo  cheque.ChequeRepository
	userRepo    identity.UserRepository
	permissions *identity.PermissionTable
	auditor     audit.Recorder
	eventBus    shared.EventPublisher
	txManager   shared.TransactionManager
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo payment.PaymentRepository,
	fundRepo fund.FundRepository,
	chequeRepo cheque.ChequeRepository,
	userRepo identity.UserRepository,
	permissions *identity.PermissionTable,
	auditor audit.Recorder,
	eventBus shared.EventPublisher,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		fundRepo:    fundRepo,
		chequeRepo:  chequeRepo,
		userRepo:    userRepo,
		permissions: permissions,
		auditor:     auditor,
		eventBus:    eventBus,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreatePaymentRequest represents a request to create a payment obligation
type CreatePaymentRequest struct {
	Reference   string
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
	Method      payment.PaymentMethod
	FundID      *uuid.UUID
	ChequeID    *uuid.UUID
	ActorID     uuid.UUID
}

// RegisterPartialPaymentRequest represents a settlement request
type RegisterPartialPaymentRequest struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
	Method    payment.PaymentMethod
	Reference string
	ActorID   uuid.UUID
}

// CreatePayment creates a new payment obligation
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	actor, err := s.authorize(ctx, req.ActorID, identity.PermPaymentCreate)
	if err != nil {
		return nil, err
	}

	p, err := payment.NewPayment(req.Reference, req.Description, valueobject.NewMoneyEUR(req.Amount), req.DueDate, req.Method, actor.ID)
	if err != nil {
		return nil, err
	}
	if req.FundID != nil {
		if err := p.AttachFund(*req.FundID); err != nil {
			return nil, err
		}
	}
	if req.ChequeID != nil {
		if err := p.AttachCheque(*req.ChequeID); err != nil {
			return nil, err
		}
	}

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return s.recordAudit(ctx, "Payment", p.ID, "payment.created", actor.ID, fmt.Sprintf("Payment %s for %s created", p.Reference, p.GetOriginalAmountMoney()))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, p)
	s.logger.Info("payment created",
		zap.String("payment_id", p.ID.String()),
		zap.String("reference", p.Reference))

	return p, nil
}

// RegisterPartialPayment applies a settlement to a payment. When the
// settlement clears the balance and the payment routes through a fund or
// a cheque, the secondary ledger mutation commits in the same
// transaction; a rejection there rolls back the payment mutation too.
func (s *PaymentService) RegisterPartialPayment(ctx context.Context, req RegisterPartialPaymentRequest) (*payment.Payment, error) {
	actor, err := s.authorize(ctx, req.ActorID, identity.PermPaymentPay)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var p *payment.Payment

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.loadPayment(ctx, req.PaymentID)
		if err != nil {
			return err
		}

		record, err := p.RegisterPartialPayment(valueobject.NewMoneyEUR(req.Amount), req.Method, req.Reference, now)
		if err != nil {
			return err
		}

		if record.Method == payment.PaymentMethodCashFund {
			if err := s.withdrawFromFund(ctx, p, record, now); err != nil {
				return err
			}
		}
		if p.IsPaid() && p.Method == payment.PaymentMethodCheque {
			if err := s.clearCheque(ctx, p, now); err != nil {
				return err
			}
		}

		if err := s.paymentRepo.SaveWithLock(ctx, p); err != nil {
			return err
		}
		return s.recordAudit(ctx, "Payment", p.ID, "payment.partial_registered", actor.ID,
			fmt.Sprintf("Settlement of %s registered, %s pending", record.Amount.StringFixed(2), p.PendingAmount.StringFixed(2)))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, p)

	return p, nil
}

// CancelPayment cancels a payment and detaches its cross-references on
// both sides of each link
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID, actorID uuid.UUID) (*payment.Payment, error) {
	actor, err := s.authorize(ctx, actorID, identity.PermPaymentCancel)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var p *payment.Payment

	if err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.loadPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		chequeID := p.ChequeID

		if err := p.Cancel(now); err != nil {
			return err
		}

		if chequeID != nil {
			c, err := s.chequeRepo.FindByID(ctx, *chequeID)
			if err != nil {
				return err
			}
			if c != nil && c.DetachPayment() {
				if err := s.chequeRepo.SaveWithLock(ctx, c); err != nil {
					return err
				}
			}
		}

		funds, err := s.fundRepo.FindByPaymentRef(ctx, p.ID)
		if err != nil {
			return err
		}
		for i := range funds {
			if funds[i].DetachPayment(p.ID) > 0 {
				if err := s.fundRepo.SaveWithLock(ctx, &funds[i]); err != nil {
					return err
				}
			}
		}

		if err := s.paymentRepo.SaveWithLock(ctx, p); err != nil {
			return err
		}
		return s.recordAudit(ctx, "Payment", p.ID, "payment.cancelled", actor.ID, fmt.Sprintf("Payment %s cancelled", p.Reference))
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, p)

	return p, nil
}

// GetPayment loads a payment, re-deriving its state at read time
func (s *PaymentService) GetPayment(ctx context.Context, paymentID, actorID uuid.UUID) (*payment.Payment, error) {
	if _, err := s.authorize(ctx, actorID, identity.PermPaymentRead); err != nil {
		return nil, err
	}

	p, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	p.RecomputeState(time.Now())
	return p, nil
}

// ListPayments lists payments with filtering, re-deriving state on read
func (s *PaymentService) ListPayments(ctx context.Context, actorID uuid.UUID, filter payment.PaymentFilter) (shared.Paginated[payment.Payment], error) {
	var empty shared.Paginated[payment.Payment]
	if _, err := s.authorize(ctx, actorID, identity.PermPaymentRead); err != nil {
		return empty, err
	}

	items, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return empty, err
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return empty, err
	}

	now := time.Now()
	for i := range items {
		items[i].RecomputeState(now)
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// MarkOverduePayments transitions unsettled past-due payments to OVERDUE.
// Invoked by an explicit maintenance call; external scheduling decides
// the cadence. Returns the number of payments transitioned.
func (s *PaymentService) MarkOverduePayments(ctx context.Context, now time.Time) (int, error) {
	due, err := s.paymentRepo.FindUnsettledDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range due {
		p := &due[i]
		before := p.Status
		if p.RecomputeState(now) == payment.PaymentStatusOverdue && before != payment.PaymentStatusOverdue {
			p.IncrementVersion()
			if err := s.paymentRepo.SaveWithLock(ctx, p); err != nil {
				if shared.IsCode(err, shared.CodeConcurrentModification) {
					// Someone else touched it; the next sweep picks it up
					continue
				}
				return swept, err
			}
			swept++
		}
	}

	if swept > 0 {
		s.logger.Info("overdue sweep finished", zap.Int("transitioned", swept))
	}

	return swept, nil
}

// withdrawFromFund emits the fund-float withdrawal for a cash fund
// settlement. InsufficientFunds here aborts the whole transaction.
func (s *PaymentService) withdrawFromFund(ctx context.Context, p *payment.Payment, record *payment.PartialPayment, now time.Time) error {
	if p.FundID == nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payment has no linked cash fund")
	}
	f, err := s.fundRepo.FindByID(ctx, *p.FundID)
	if err != nil {
		return err
	}
	if f == nil {
		return shared.NewDomainError(shared.CodeNotFound, "Linked cash fund not found")
	}

	paymentID := p.ID
	if _, err := f.AddMovement(fund.MovementTypeWithdrawal, valueobject.NewMoneyEUR(record.Amount),
		fmt.Sprintf("Pagamento %s", p.Reference), &paymentID, now); err != nil {
		return err
	}
	if err := s.fundRepo.SaveWithLock(ctx, f); err != nil {
		return err
	}

	s.publishEvents(ctx, f)
	return nil
}

// clearCheque clears the linked cheque when a cheque payment settles
func (s *PaymentService) clearCheque(ctx context.Context, p *payment.Payment, now time.Time) error {
	if p.ChequeID == nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payment has no linked cheque")
	}
	c, err := s.chequeRepo.FindByID(ctx, *p.ChequeID)
	if err != nil {
		return err
	}
	if c == nil {
		return shared.NewDomainError(shared.CodeNotFound, "Linked cheque not found")
	}

	if err := c.Clear(now); err != nil {
		return err
	}
	if err := s.chequeRepo.SaveWithLock(ctx, c); err != nil {
		return err
	}

	s.publishEvents(ctx, c)
	return nil
}

func (s *PaymentService) loadPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Payment not found")
	}
	return p, nil
}

func (s *PaymentService) authorize(ctx context.Context, actorID uuid.UUID, permission string) (*identity.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, permission) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", permission))
	}
	return actor, nil
}

func (s *PaymentService) recordAudit(ctx context.Context, entityType string, entityID uuid.UUID, action string, actorID uuid.UUID, detail string) error {
	entry, err := audit.NewAuditEntry(entityType, entityID, action, actorID, detail, time.Now())
	if err != nil {
		return err
	}
	return s.auditor.Record(ctx, entry)
}

func (s *PaymentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
