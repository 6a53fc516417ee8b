package handler

import (
	auditapp "github.com/fintrack/backend/internal/application/audit"
	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler handles audit trail read endpoints
type AuditHandler struct {
	BaseHandler
	auditService *auditapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *auditapp.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// AuditListRequest holds audit list query parameters
type AuditListRequest struct {
	dto.ListRequest
	EntityType string `form:"entity_type" binding:"omitempty,max=50"`
	EntityID   string `form:"entity_id" binding:"omitempty,uuid"`
	ActorID    string `form:"actor_id" binding:"omitempty,uuid"`
	From       string `form:"from" binding:"omitempty"`
	To         string `form:"to" binding:"omitempty"`
}

// List returns a paginated audit trail slice
func (h *AuditHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := audit.AuditFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}
	if req.EntityType != "" {
		filter.EntityType = &req.EntityType
	}
	if req.EntityID != "" {
		entityID, err := uuid.Parse(req.EntityID)
		if err != nil {
			h.BadRequest(c, "Invalid entity_id")
			return
		}
		filter.EntityID = &entityID
	}
	if req.ActorID != "" {
		filterActorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			h.BadRequest(c, "Invalid actor_id")
			return
		}
		filter.ActorID = &filterActorID
	}
	if req.From != "" {
		from, err := parseDate(req.From)
		if err != nil {
			h.BadRequest(c, "Invalid from")
			return
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseDate(req.To)
		if err != nil {
			h.BadRequest(c, "Invalid to")
			return
		}
		filter.To = &to
	}

	result, err := h.auditService.ListEntries(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// EntityTrail returns the full trail for one aggregate, oldest first
func (h *AuditHandler) EntityTrail(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	entityType := c.Param("entityType")
	if entityType == "" {
		h.BadRequest(c, "Entity type is required")
		return
	}

	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entity ID format")
		return
	}

	entries, err := h.auditService.EntityTrail(c.Request.Context(), actorID, entityType, entityID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}
