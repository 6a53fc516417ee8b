// Package apptest provides in-memory collaborator implementations used
// by application service tests.
package apptest

import (
	"context"
	"sync"
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
)

// NoopTxManager runs the function directly; rollback semantics are not
// emulated, callers assert on returned errors instead.
type NoopTxManager struct{}

func (NoopTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MemoryEventBus collects published events for assertions
type MemoryEventBus struct {
	mu     sync.Mutex
	Events []shared.DomainEvent
}

func (b *MemoryEventBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, events...)
	return nil
}

// EventTypes returns the types of all captured events, in order
func (b *MemoryEventBus) EventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.Events))
	for _, e := range b.Events {
		types = append(types, e.EventType())
	}
	return types
}

// MemoryAuditor collects audit entries for assertions
type MemoryAuditor struct {
	mu      sync.Mutex
	Entries []audit.AuditEntry
}

func (a *MemoryAuditor) Record(_ context.Context, entry *audit.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, *entry)
	return nil
}

// Actions returns the recorded action names, in order
func (a *MemoryAuditor) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// FindByEntity lists the trail for one aggregate, oldest first
func (a *MemoryAuditor) FindByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]audit.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.AuditEntry, 0)
	for _, e := range a.Entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// FindAll finds audit entries with filtering
func (a *MemoryAuditor) FindAll(_ context.Context, filter audit.AuditFilter) ([]audit.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.AuditEntry, 0)
	for _, e := range a.Entries {
		if matchesAuditFilter(e, filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count counts audit entries with filtering
func (a *MemoryAuditor) Count(ctx context.Context, filter audit.AuditFilter) (int64, error) {
	entries, err := a.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}

func matchesAuditFilter(e audit.AuditEntry, filter audit.AuditFilter) bool {
	if filter.EntityType != nil && e.EntityType != *filter.EntityType {
		return false
	}
	if filter.EntityID != nil && e.EntityID != *filter.EntityID {
		return false
	}
	if filter.ActorID != nil && e.ActorID != *filter.ActorID {
		return false
	}
	if filter.From != nil && e.OccurredAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && e.OccurredAt.After(*filter.To) {
		return false
	}
	return true
}

// CapturingDispatcher collects dispatched notifications
type CapturingDispatcher struct {
	mu   sync.Mutex
	Sent []notification.Notification
}

func (d *CapturingDispatcher) Dispatch(_ context.Context, n *notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sent = append(d.Sent, *n)
	return nil
}

// MemoryUserRepo is an in-memory identity.UserRepository
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]identity.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[uuid.UUID]identity.User)}
}

// Seed stores a user directly
func (r *MemoryUserRepo) Seed(users ...*identity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		r.users[u.ID] = *u
	}
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := u
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindByUsername(_ context.Context, username string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindAll(_ context.Context, _ identity.UserFilter) ([]identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *MemoryUserRepo) Save(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepo) SaveWithLock(ctx context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[u.ID]; ok && existing.Version >= u.Version {
		return shared.NewDomainError(shared.CodeConcurrentModification, "User was modified by another process")
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryUserRepo) Count(_ context.Context, _ identity.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// MemoryPaymentRepo is an in-memory payment.PaymentRepository
type MemoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]payment.Payment
}

func NewMemoryPaymentRepo() *MemoryPaymentRepo {
	return &MemoryPaymentRepo{payments: make(map[uuid.UUID]payment.Payment)}
}

func clonePayment(p payment.Payment) payment.Payment {
	p.PartialPayments = append([]payment.PartialPayment(nil), p.PartialPayments...)
	return p
}

func (r *MemoryPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		clone := clonePayment(p)
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryPaymentRepo) FindByReference(_ context.Context, reference string) ([]payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payment.Payment
	for _, p := range r.payments {
		if p.Reference == reference {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *MemoryPaymentRepo) FindAll(_ context.Context, _ payment.PaymentFilter) ([]payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]payment.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, clonePayment(p))
	}
	return out, nil
}

func (r *MemoryPaymentRepo) FindUnsettledDueBefore(_ context.Context, cutoff time.Time) ([]payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payment.Payment
	for _, p := range r.payments {
		if !p.Status.IsTerminal() && p.DueDate.Before(cutoff) {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *MemoryPaymentRepo) Save(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = clonePayment(*p)
	return nil
}

func (r *MemoryPaymentRepo) SaveWithLock(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[p.ID]; ok && existing.Version >= p.Version {
		return shared.NewDomainError(shared.CodeConcurrentModification, "Payment was modified by another process")
	}
	r.payments[p.ID] = clonePayment(*p)
	return nil
}

func (r *MemoryPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, id)
	return nil
}

func (r *MemoryPaymentRepo) Count(_ context.Context, _ payment.PaymentFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.payments)), nil
}

// MemoryFundRepo is an in-memory fund.FundRepository
type MemoryFundRepo struct {
	mu    sync.Mutex
	funds map[uuid.UUID]fund.CashFund
}

func NewMemoryFundRepo() *MemoryFundRepo {
	return &MemoryFundRepo{funds: make(map[uuid.UUID]fund.CashFund)}
}

func cloneFund(f fund.CashFund) fund.CashFund {
	f.Movements = append([]fund.FundMovement(nil), f.Movements...)
	return f
}

func (r *MemoryFundRepo) FindByID(_ context.Context, id uuid.UUID) (*fund.CashFund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.funds[id]; ok {
		clone := cloneFund(f)
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryFundRepo) FindByMonth(_ context.Context, month time.Time) ([]fund.CashFund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fund.CashFund
	for _, f := range r.funds {
		if f.ReferenceMonth.Year() == month.Year() && f.ReferenceMonth.Month() == month.Month() {
			out = append(out, cloneFund(f))
		}
	}
	return out, nil
}

func (r *MemoryFundRepo) FindAll(_ context.Context, _ fund.FundFilter) ([]fund.CashFund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fund.CashFund, 0, len(r.funds))
	for _, f := range r.funds {
		out = append(out, cloneFund(f))
	}
	return out, nil
}

func (r *MemoryFundRepo) FindByPaymentRef(_ context.Context, paymentID uuid.UUID) ([]fund.CashFund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fund.CashFund
	for _, f := range r.funds {
		for _, m := range f.Movements {
			if m.PaymentID != nil && *m.PaymentID == paymentID {
				out = append(out, cloneFund(f))
				break
			}
		}
	}
	return out, nil
}

func (r *MemoryFundRepo) Save(_ context.Context, f *fund.CashFund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funds[f.ID] = cloneFund(*f)
	return nil
}

func (r *MemoryFundRepo) SaveWithLock(_ context.Context, f *fund.CashFund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.funds[f.ID]; ok && existing.Version >= f.Version {
		return shared.NewDomainError(shared.CodeConcurrentModification, "Fund was modified by another process")
	}
	r.funds[f.ID] = cloneFund(*f)
	return nil
}

func (r *MemoryFundRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funds, id)
	return nil
}

func (r *MemoryFundRepo) Count(_ context.Context, _ fund.FundFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.funds)), nil
}

// MemoryChequeRepo is an in-memory cheque.ChequeRepository
type MemoryChequeRepo struct {
	mu      sync.Mutex
	cheques map[uuid.UUID]cheque.Cheque
}

func NewMemoryChequeRepo() *MemoryChequeRepo {
	return &MemoryChequeRepo{cheques: make(map[uuid.UUID]cheque.Cheque)}
}

func (r *MemoryChequeRepo) FindByID(_ context.Context, id uuid.UUID) (*cheque.Cheque, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cheques[id]; ok {
		clone := c
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryChequeRepo) FindByNumber(_ context.Context, number string) (*cheque.Cheque, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cheques {
		if c.Number == number {
			clone := c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryChequeRepo) FindAll(_ context.Context, _ cheque.ChequeFilter) ([]cheque.Cheque, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cheque.Cheque, 0, len(r.cheques))
	for _, c := range r.cheques {
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryChequeRepo) FindByPaymentRef(_ context.Context, paymentID uuid.UUID) ([]cheque.Cheque, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []cheque.Cheque
	for _, c := range r.cheques {
		if c.PaymentID != nil && *c.PaymentID == paymentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryChequeRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cheques {
		if c.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryChequeRepo) Save(_ context.Context, c *cheque.Cheque) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cheques[c.ID] = *c
	return nil
}

func (r *MemoryChequeRepo) SaveWithLock(_ context.Context, c *cheque.Cheque) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cheques[c.ID]; ok && existing.Version >= c.Version {
		return shared.NewDomainError(shared.CodeConcurrentModification, "Cheque was modified by another process")
	}
	r.cheques[c.ID] = *c
	return nil
}

func (r *MemoryChequeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cheques, id)
	return nil
}

func (r *MemoryChequeRepo) Count(_ context.Context, _ cheque.ChequeFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.cheques)), nil
}

// MemoryWorkflowRepo is an in-memory workflow.WorkflowRepository
type MemoryWorkflowRepo struct {
	mu        sync.Mutex
	workflows map[uuid.UUID]workflow.Workflow
}

func NewMemoryWorkflowRepo() *MemoryWorkflowRepo {
	return &MemoryWorkflowRepo{workflows: make(map[uuid.UUID]workflow.Workflow)}
}

func cloneWorkflow(w workflow.Workflow) workflow.Workflow {
	w.Steps = append([]workflow.WorkflowStep(nil), w.Steps...)
	return w
}

func (r *MemoryWorkflowRepo) FindByID(_ context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workflows[id]; ok {
		clone := cloneWorkflow(w)
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryWorkflowRepo) FindBySubject(_ context.Context, subjectType string, subjectID uuid.UUID) ([]workflow.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []workflow.Workflow
	for _, w := range r.workflows {
		if w.SubjectType == subjectType && w.SubjectID == subjectID {
			out = append(out, cloneWorkflow(w))
		}
	}
	return out, nil
}

func (r *MemoryWorkflowRepo) FindActiveBySubject(_ context.Context, subjectType string, subjectID uuid.UUID) (*workflow.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workflows {
		if w.SubjectType == subjectType && w.SubjectID == subjectID && w.Status == workflow.WorkflowStatusInProgress {
			clone := cloneWorkflow(w)
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryWorkflowRepo) FindAll(_ context.Context, _ workflow.WorkflowFilter) ([]workflow.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]workflow.Workflow, 0, len(r.workflows))
	for _, w := range r.workflows {
		out = append(out, cloneWorkflow(w))
	}
	return out, nil
}

func (r *MemoryWorkflowRepo) Save(_ context.Context, w *workflow.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[w.ID] = cloneWorkflow(*w)
	return nil
}

func (r *MemoryWorkflowRepo) SaveWithLock(_ context.Context, w *workflow.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.workflows[w.ID]; ok && existing.Version >= w.Version {
		return shared.NewDomainError(shared.CodeConcurrentModification, "Workflow was modified by another process")
	}
	r.workflows[w.ID] = cloneWorkflow(*w)
	return nil
}

func (r *MemoryWorkflowRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workflows, id)
	return nil
}

func (r *MemoryWorkflowRepo) Count(_ context.Context, _ workflow.WorkflowFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.workflows)), nil
}

// MemoryNotificationRepo is an in-memory notification.NotificationRepository
type MemoryNotificationRepo struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]notification.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{notifications: make(map[uuid.UUID]notification.Notification)}
}

func (r *MemoryNotificationRepo) FindByID(_ context.Context, id uuid.UUID) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notifications[id]; ok {
		clone := n
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryNotificationRepo) FindForUser(_ context.Context, userTarget string, filter notification.NotificationFilter) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Notification
	for _, n := range r.notifications {
		if n.TargetUser != userTarget && !n.IsBroadcast() {
			continue
		}
		if filter.Unread != nil && *filter.Unread && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *MemoryNotificationRepo) FindAll(_ context.Context, _ notification.NotificationFilter) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		out = append(out, n)
	}
	return out, nil
}

func (r *MemoryNotificationRepo) CountUnreadForUser(_ context.Context, userTarget string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if (n.TargetUser == userTarget || n.IsBroadcast()) && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepo) Save(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[n.ID] = *n
	return nil
}

func (r *MemoryNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notifications, id)
	return nil
}
