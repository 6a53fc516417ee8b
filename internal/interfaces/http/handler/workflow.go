package handler

import (
	workflowapp "github.com/fintrack/backend/internal/application/workflow"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WorkflowHandler handles approval workflow endpoints
type WorkflowHandler struct {
	BaseHandler
	approvalService *workflowapp.ApprovalService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(approvalService *workflowapp.ApprovalService) *WorkflowHandler {
	return &WorkflowHandler{approvalService: approvalService}
}

// WorkflowStepInput describes one approval step in an initiate request
type WorkflowStepInput struct {
	Role       string `json:"role" binding:"required,oneof=ADMIN FINANCIAL_DIRECTOR RECTOR USER"`
	ApproverID string `json:"approver_id" binding:"required,uuid"`
}

// InitiateWorkflowRequest represents a request to start an approval chain
type InitiateWorkflowRequest struct {
	SubjectType string              `json:"subject_type" binding:"required,min=1,max=50"`
	SubjectID   string              `json:"subject_id" binding:"required,uuid"`
	Steps       []WorkflowStepInput `json:"steps" binding:"required,min=1,dive"`
}

// DecideRequest represents one approve or reject decision
type DecideRequest struct {
	StepIndex int    `json:"step_index" binding:"min=0"`
	Decision  string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Comments  string `json:"comments" binding:"max=1000"`
}

// WorkflowListRequest holds workflow list query parameters
type WorkflowListRequest struct {
	dto.ListRequest
	Status      string `form:"status" binding:"omitempty,oneof=IN_PROGRESS APPROVED REJECTED"`
	SubjectType string `form:"subject_type" binding:"omitempty,max=50"`
	ApproverID  string `form:"approver_id" binding:"omitempty,uuid"`
}

// Initiate starts a new approval workflow for a subject
func (h *WorkflowHandler) Initiate(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req InitiateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		h.BadRequest(c, "Invalid subject_id")
		return
	}

	steps := make([]workflowapp.StepInput, 0, len(req.Steps))
	for _, s := range req.Steps {
		approverID, err := uuid.Parse(s.ApproverID)
		if err != nil {
			h.BadRequest(c, "Invalid approver_id")
			return
		}
		steps = append(steps, workflowapp.StepInput{
			Role:       identity.Role(s.Role),
			ApproverID: approverID,
		})
	}

	w, err := h.approvalService.InitiateApproval(c.Request.Context(), workflowapp.InitiateRequest{
		SubjectType: req.SubjectType,
		SubjectID:   subjectID,
		Steps:       steps,
		ActorID:     actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toWorkflowResponse(w))
}

// Decide records an approve or reject decision on the current step
func (h *WorkflowHandler) Decide(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	workflowID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid workflow ID format")
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	w, err := h.approvalService.Decide(c.Request.Context(), workflowapp.DecideRequest{
		WorkflowID: workflowID,
		StepIndex:  req.StepIndex,
		Decision:   workflow.Decision(req.Decision),
		Comments:   req.Comments,
		ActorID:    actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toWorkflowResponse(w))
}

// GetByID returns one workflow with its steps
func (h *WorkflowHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	workflowID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid workflow ID format")
		return
	}

	w, err := h.approvalService.GetWorkflow(c.Request.Context(), workflowID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toWorkflowResponse(w))
}

// List returns a paginated workflow list
func (h *WorkflowHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req WorkflowListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := workflow.WorkflowFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}
	if req.Status != "" {
		status := workflow.WorkflowStatus(req.Status)
		filter.Status = &status
	}
	if req.SubjectType != "" {
		filter.SubjectType = &req.SubjectType
	}
	if req.ApproverID != "" {
		approverID, err := uuid.Parse(req.ApproverID)
		if err != nil {
			h.BadRequest(c, "Invalid approver_id")
			return
		}
		filter.ApproverID = &approverID
	}

	result, err := h.approvalService.ListWorkflows(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toWorkflowResponses(result.Items), result.Total, result.Page, result.PageSize)
}
