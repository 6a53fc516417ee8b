package handler

import (
	fundapp "github.com/fintrack/backend/internal/application/fund"
	"github.com/fintrack/backend/internal/domain/fund"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundHandler handles cash fund endpoints
type FundHandler struct {
	BaseHandler
	fundService *fundapp.FundService
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(fundService *fundapp.FundService) *FundHandler {
	return &FundHandler{fundService: fundService}
}

// CreateFundRequest represents a request to open a cash fund
type CreateFundRequest struct {
	Name                 string  `json:"name" binding:"required,min=1,max=200"`
	ReferenceMonth       string  `json:"reference_month" binding:"required"`
	OpeningBalance       float64 `json:"opening_balance"`
	AllowNegativeOpening bool    `json:"allow_negative_opening"`
	AllowOverdraft       bool    `json:"allow_overdraft"`
}

// AddMovementRequest represents a request to record a fund movement
type AddMovementRequest struct {
	Type        string  `json:"type" binding:"required,oneof=ENTRY WITHDRAWAL"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=500"`
	PaymentID   *string `json:"payment_id" binding:"omitempty,uuid"`
}

// FundListRequest holds fund list query parameters
type FundListRequest struct {
	dto.ListRequest
	MonthFrom string `form:"month_from" binding:"omitempty"`
	MonthTo   string `form:"month_to" binding:"omitempty"`
}

// Create opens a new cash fund
func (h *FundHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	month, err := parseDate(req.ReferenceMonth)
	if err != nil {
		h.BadRequest(c, "Invalid reference_month, expected RFC 3339 or YYYY-MM-DD")
		return
	}

	created, err := h.fundService.CreateFund(c.Request.Context(), fundapp.CreateFundRequest{
		Name:           req.Name,
		ReferenceMonth: month,
		OpeningBalance: decimal.NewFromFloat(req.OpeningBalance),
		Policy: fund.FundPolicy{
			AllowNegativeOpening: req.AllowNegativeOpening,
			AllowOverdraft:       req.AllowOverdraft,
		},
		ActorID:        actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFundResponse(created))
}

// GetByID returns one fund with its movements
func (h *FundHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fundID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid fund ID format")
		return
	}

	f, err := h.fundService.GetFund(c.Request.Context(), fundID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFundResponse(f))
}

// List returns a paginated fund list
func (h *FundHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req FundListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := fund.FundFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}
	if req.MonthFrom != "" {
		from, err := parseDate(req.MonthFrom)
		if err != nil {
			h.BadRequest(c, "Invalid month_from")
			return
		}
		filter.MonthFrom = &from
	}
	if req.MonthTo != "" {
		to, err := parseDate(req.MonthTo)
		if err != nil {
			h.BadRequest(c, "Invalid month_to")
			return
		}
		filter.MonthTo = &to
	}

	result, err := h.fundService.ListFunds(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toFundResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// AddMovement records an entry or withdrawal against a fund
func (h *FundHandler) AddMovement(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fundID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid fund ID format")
		return
	}

	var req AddMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq := fundapp.AddMovementRequest{
		FundID:      fundID,
		Type:        fund.MovementType(req.Type),
		Amount:      decimal.NewFromFloat(req.Amount),
		Description: req.Description,
		ActorID:     actorID,
	}
	if appReq.PaymentID, err = parseOptionalUUID(req.PaymentID); err != nil {
		h.BadRequest(c, "Invalid payment_id")
		return
	}

	movement, err := h.fundService.AddMovement(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, movement)
}

// RemoveMovement removes a movement and re-derives the closing balance
func (h *FundHandler) RemoveMovement(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fundID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid fund ID format")
		return
	}

	movementID, err := uuid.Parse(c.Param("movementId"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	f, err := h.fundService.RemoveMovement(c.Request.Context(), fundID, movementID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFundResponse(f))
}
