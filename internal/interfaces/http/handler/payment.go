package handler

import (
	"time"

	paymentapp "github.com/fintrack/backend/internal/application/payment"
	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment ledger endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents a request to create a payment obligation
type CreatePaymentRequest struct {
	Reference   string  `json:"reference" binding:"required,min=1,max=100"`
	Description string  `json:"description" binding:"max=500"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	DueDate     string  `json:"due_date" binding:"required"`
	Method      string  `json:"method" binding:"required,oneof=BANK_TRANSFER CHEQUE DIRECT_DEBIT CASH_FUND OTHER"`
	FundID      *string `json:"fund_id" binding:"omitempty,uuid"`
	ChequeID    *string `json:"cheque_id" binding:"omitempty,uuid"`
}

// RegisterPartialPaymentRequest represents a settlement against a payment
type RegisterPartialPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=BANK_TRANSFER CHEQUE DIRECT_DEBIT CASH_FUND OTHER"`
	Reference string  `json:"reference" binding:"max=100"`
}

// PaymentListRequest holds payment list query parameters
type PaymentListRequest struct {
	dto.ListRequest
	Status  string `form:"status" binding:"omitempty,oneof=PENDING PAID OVERDUE CANCELLED"`
	Method  string `form:"method" binding:"omitempty,oneof=BANK_TRANSFER CHEQUE DIRECT_DEBIT CASH_FUND OTHER"`
	FundID  string `form:"fund_id" binding:"omitempty,uuid"`
	DueFrom string `form:"due_from" binding:"omitempty"`
	DueTo   string `form:"due_to" binding:"omitempty"`
	Overdue *bool  `form:"overdue"`
}

// Create creates a new payment obligation
func (h *PaymentHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due_date, expected RFC 3339 or YYYY-MM-DD")
		return
	}

	appReq := paymentapp.CreatePaymentRequest{
		Reference:   req.Reference,
		Description: req.Description,
		Amount:      decimal.NewFromFloat(req.Amount),
		DueDate:     dueDate,
		Method:      payment.PaymentMethod(req.Method),
		ActorID:     actorID,
	}
	if appReq.FundID, err = parseOptionalUUID(req.FundID); err != nil {
		h.BadRequest(c, "Invalid fund_id")
		return
	}
	if appReq.ChequeID, err = parseOptionalUUID(req.ChequeID); err != nil {
		h.BadRequest(c, "Invalid cheque_id")
		return
	}

	created, err := h.paymentService.CreatePayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(created))
}

// GetByID returns one payment with its partial payments
func (h *PaymentHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	paymentID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	p, err := h.paymentService.GetPayment(c.Request.Context(), paymentID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(p))
}

// List returns a paginated payment list
func (h *PaymentHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := payment.PaymentFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		Overdue: req.Overdue,
	}
	if req.Status != "" {
		status := payment.PaymentStatus(req.Status)
		filter.Status = &status
	}
	if req.Method != "" {
		method := payment.PaymentMethod(req.Method)
		filter.Method = &method
	}
	if req.FundID != "" {
		fundID, err := uuid.Parse(req.FundID)
		if err != nil {
			h.BadRequest(c, "Invalid fund_id")
			return
		}
		filter.FundID = &fundID
	}
	if req.DueFrom != "" {
		from, err := parseDate(req.DueFrom)
		if err != nil {
			h.BadRequest(c, "Invalid due_from")
			return
		}
		filter.DueFrom = &from
	}
	if req.DueTo != "" {
		to, err := parseDate(req.DueTo)
		if err != nil {
			h.BadRequest(c, "Invalid due_to")
			return
		}
		filter.DueTo = &to
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toPaymentResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// RegisterPartial applies a settlement against a payment's balance
func (h *PaymentHandler) RegisterPartial(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	paymentID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req RegisterPartialPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	p, err := h.paymentService.RegisterPartialPayment(c.Request.Context(), paymentapp.RegisterPartialPaymentRequest{
		PaymentID: paymentID,
		Amount:    decimal.NewFromFloat(req.Amount),
		Method:    payment.PaymentMethod(req.Method),
		Reference: req.Reference,
		ActorID:   actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(p))
}

// Cancel cancels a payment before full settlement
func (h *PaymentHandler) Cancel(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	paymentID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	p, err := h.paymentService.CancelPayment(c.Request.Context(), paymentID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(p))
}

// OverdueSweepResponse reports how many payments were flagged
type OverdueSweepResponse struct {
	Swept int `json:"swept"`
}

// SweepOverdue flags unsettled payments past their due date. Normally
// the background sweeper drives this; the endpoint exists for manual
// runs.
func (h *PaymentHandler) SweepOverdue(c *gin.Context) {
	swept, err := h.paymentService.MarkOverduePayments(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, OverdueSweepResponse{Swept: swept})
}

// parseDate accepts RFC 3339 timestamps and bare dates
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
