package handler

import (
	chequeapp "github.com/fintrack/backend/internal/application/cheque"
	"github.com/fintrack/backend/internal/domain/cheque"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChequeHandler handles cheque registry endpoints
type ChequeHandler struct {
	BaseHandler
	chequeService *chequeapp.ChequeService
}

// NewChequeHandler creates a new ChequeHandler
func NewChequeHandler(chequeService *chequeapp.ChequeService) *ChequeHandler {
	return &ChequeHandler{chequeService: chequeService}
}

// IssueChequeRequest represents a request to issue a cheque
type IssueChequeRequest struct {
	Number    string  `json:"number" binding:"required,min=1,max=50"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Payee     string  `json:"payee" binding:"max=200"`
	PaymentID *string `json:"payment_id" binding:"omitempty,uuid"`
}

// TransitionChequeRequest represents a lifecycle transition request
type TransitionChequeRequest struct {
	Status string `json:"status" binding:"required,oneof=CLEARED CANCELLED"`
}

// ChequeListRequest holds cheque list query parameters
type ChequeListRequest struct {
	dto.ListRequest
	Status    string `form:"status" binding:"omitempty,oneof=EMITTED CLEARED CANCELLED"`
	PaymentID string `form:"payment_id" binding:"omitempty,uuid"`
}

// Issue registers a new cheque. The number must be unique.
func (h *ChequeHandler) Issue(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req IssueChequeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq := chequeapp.IssueChequeRequest{
		Number:  req.Number,
		Amount:  decimal.NewFromFloat(req.Amount),
		Payee:   req.Payee,
		ActorID: actorID,
	}
	if appReq.PaymentID, err = parseOptionalUUID(req.PaymentID); err != nil {
		h.BadRequest(c, "Invalid payment_id")
		return
	}

	issued, err := h.chequeService.IssueCheque(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toChequeResponse(issued))
}

// GetByID returns one cheque
func (h *ChequeHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	chequeID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid cheque ID format")
		return
	}

	ch, err := h.chequeService.GetCheque(c.Request.Context(), chequeID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toChequeResponse(ch))
}

// List returns a paginated cheque list
func (h *ChequeHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ChequeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := cheque.ChequeFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}
	if req.Status != "" {
		status := cheque.ChequeStatus(req.Status)
		filter.Status = &status
	}
	if req.PaymentID != "" {
		paymentID, err := uuid.Parse(req.PaymentID)
		if err != nil {
			h.BadRequest(c, "Invalid payment_id")
			return
		}
		filter.PaymentID = &paymentID
	}

	result, err := h.chequeService.ListCheques(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toChequeResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// Transition moves a cheque to CLEARED or CANCELLED. Both are terminal;
// a cheque already in a terminal state is rejected.
func (h *ChequeHandler) Transition(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	chequeID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid cheque ID format")
		return
	}

	var req TransitionChequeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ch, err := h.chequeService.TransitionState(c.Request.Context(), chequeID, cheque.ChequeStatus(req.Status), actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toChequeResponse(ch))
}
