package handler

import (
	"time"

	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentResponse is the wire representation of a payment obligation
type PaymentResponse struct {
	ID              uuid.UUID                `json:"id"`
	Reference       string                   `json:"reference"`
	Description     string                   `json:"description"`
	OriginalAmount  decimal.Decimal          `json:"original_amount"`
	PendingAmount   decimal.Decimal          `json:"pending_amount"`
	DueDate         time.Time                `json:"due_date"`
	PaidAt          *time.Time               `json:"paid_at,omitempty"`
	Status          payment.PaymentStatus    `json:"status"`
	Method          payment.PaymentMethod    `json:"method"`
	FundID          *uuid.UUID               `json:"fund_id,omitempty"`
	ChequeID        *uuid.UUID               `json:"cheque_id,omitempty"`
	RequestedBy     uuid.UUID                `json:"requested_by"`
	PartialPayments []payment.PartialPayment `json:"partial_payments"`
	Version         int                      `json:"version"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	partials := p.PartialPayments
	if partials == nil {
		partials = []payment.PartialPayment{}
	}
	return PaymentResponse{
		ID:              p.ID,
		Reference:       p.Reference,
		Description:     p.Description,
		OriginalAmount:  p.OriginalAmount,
		PendingAmount:   p.PendingAmount,
		DueDate:         p.DueDate,
		PaidAt:          p.PaidAt,
		Status:          p.Status,
		Method:          p.Method,
		FundID:          p.FundID,
		ChequeID:        p.ChequeID,
		RequestedBy:     p.RequestedBy,
		PartialPayments: partials,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toPaymentResponses(payments []payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentResponse(&payments[i]))
	}
	return out
}

// FundResponse is the wire representation of a cash fund
type FundResponse struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	ReferenceMonth time.Time           `json:"reference_month"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	AllowOverdraft bool                `json:"allow_overdraft"`
	Movements      []fund.FundMovement `json:"movements"`
	Version        int                 `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toFundResponse(f *fund.CashFund) FundResponse {
	movements := f.Movements
	if movements == nil {
		movements = []fund.FundMovement{}
	}
	return FundResponse{
		ID:             f.ID,
		Name:           f.Name,
		ReferenceMonth: f.ReferenceMonth,
		OpeningBalance: f.OpeningBalance,
		ClosingBalance: f.ClosingBalance,
		AllowOverdraft: f.AllowOverdraft,
		Movements:      movements,
		Version:        f.Version,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func toFundResponses(funds []fund.CashFund) []FundResponse {
	out := make([]FundResponse, 0, len(funds))
	for i := range funds {
		out = append(out, toFundResponse(&funds[i]))
	}
	return out
}

// ChequeResponse is the wire representation of a cheque
type ChequeResponse struct {
	ID        uuid.UUID           `json:"id"`
	Number    string              `json:"number"`
	Amount    decimal.Decimal     `json:"amount"`
	Payee     string              `json:"payee"`
	IssuedAt  time.Time           `json:"issued_at"`
	PaidAt    *time.Time          `json:"paid_at,omitempty"`
	Status    cheque.ChequeStatus `json:"status"`
	PaymentID *uuid.UUID          `json:"payment_id,omitempty"`
	IssuedBy  uuid.UUID           `json:"issued_by"`
	Version   int                 `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toChequeResponse(ch *cheque.Cheque) ChequeResponse {
	return ChequeResponse{
		ID:        ch.ID,
		Number:    ch.Number,
		Amount:    ch.Amount,
		Payee:     ch.Payee,
		IssuedAt:  ch.IssuedAt,
		PaidAt:    ch.PaidAt,
		Status:    ch.Status,
		PaymentID: ch.PaymentID,
		IssuedBy:  ch.IssuedBy,
		Version:   ch.Version,
		CreatedAt: ch.CreatedAt,
		UpdatedAt: ch.UpdatedAt,
	}
}

func toChequeResponses(cheques []cheque.Cheque) []ChequeResponse {
	out := make([]ChequeResponse, 0, len(cheques))
	for i := range cheques {
		out = append(out, toChequeResponse(&cheques[i]))
	}
	return out
}

// WorkflowResponse is the wire representation of an approval workflow
type WorkflowResponse struct {
	ID          uuid.UUID               `json:"id"`
	SubjectType string                  `json:"subject_type"`
	SubjectID   uuid.UUID               `json:"subject_id"`
	Status      workflow.WorkflowStatus `json:"status"`
	CurrentStep int                     `json:"current_step"`
	RequestedBy uuid.UUID               `json:"requested_by"`
	Steps       []workflow.WorkflowStep `json:"steps"`
	Version     int                     `json:"version"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toWorkflowResponse(w *workflow.Workflow) WorkflowResponse {
	steps := w.Steps
	if steps == nil {
		steps = []workflow.WorkflowStep{}
	}
	return WorkflowResponse{
		ID:          w.ID,
		SubjectType: w.SubjectType,
		SubjectID:   w.SubjectID,
		Status:      w.Status,
		CurrentStep: w.CurrentStep,
		RequestedBy: w.RequestedBy,
		Steps:       steps,
		Version:     w.Version,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toWorkflowResponses(workflows []workflow.Workflow) []WorkflowResponse {
	out := make([]WorkflowResponse, 0, len(workflows))
	for i := range workflows {
		out = append(out, toWorkflowResponse(&workflows[i]))
	}
	return out
}

// UserResponse is the wire representation of a user. The password hash
// never leaves the server.
type UserResponse struct {
	ID               uuid.UUID     `json:"id"`
	Username         string        `json:"username"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Role             identity.Role `json:"role"`
	Permissions      []string      `json:"permissions"`
	PermissionGroups []string      `json:"permission_groups"`
	IsActive         bool          `json:"is_active"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func toUserResponse(u *identity.User) UserResponse {
	permissions := u.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	groups := u.PermissionGroups
	if groups == nil {
		groups = []string{}
	}
	return UserResponse{
		ID:               u.ID,
		Username:         u.Username,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		Permissions:      permissions,
		PermissionGroups: groups,
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func toUserResponses(users []identity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

// NotificationResponse is the wire representation of a notification
type NotificationResponse struct {
	ID         uuid.UUID                     `json:"id"`
	TargetUser string                        `json:"target_user"`
	Title      string                        `json:"title"`
	Message    string                        `json:"message"`
	Type       notification.NotificationType `json:"type"`
	Read       bool                          `json:"read"`
	RelatedID  *uuid.UUID                    `json:"related_id,omitempty"`
	ActionURL  string                        `json:"action_url,omitempty"`
	CreatedAt  time.Time                     `json:"created_at"`
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		TargetUser: n.TargetUser,
		Title:      n.Title,
		Message:    n.Message,
		Type:       n.Type,
		Read:       n.Read,
		RelatedID:  n.RelatedID,
		ActionURL:  n.ActionURL,
		CreatedAt:  n.CreatedAt,
	}
}

func toNotificationResponses(notifications []notification.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, toNotificationResponse(&notifications[i]))
	}
	return out
}
