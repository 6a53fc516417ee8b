package handler

import (
	identityapp "github.com/fintrack/backend/internal/application/identity"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents a request to register a user
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Email    string `json:"email" binding:"omitempty,email,max=200"`
	Password string `json:"password" binding:"required,min=8,max=200"`
	Role     string `json:"role" binding:"required,oneof=ADMIN FINANCIAL_DIRECTOR RECTOR USER"`
}

// ChangeRoleRequest represents a role change request
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN FINANCIAL_DIRECTOR RECTOR USER"`
}

// PermissionRequest carries one permission tag
type PermissionRequest struct {
	Permission string `json:"permission" binding:"required,min=1,max=100"`
}

// GroupRequest carries one permission group ID
type GroupRequest struct {
	GroupID string `json:"group_id" binding:"required,min=1,max=50"`
}

// UserListRequest holds user list query parameters
type UserListRequest struct {
	dto.ListRequest
	Role     string `form:"role" binding:"omitempty,oneof=ADMIN FINANCIAL_DIRECTOR RECTOR USER"`
	IsActive *bool  `form:"is_active"`
}

// Create registers a new user
func (h *UserHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), identityapp.CreateUserRequest{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     identity.Role(req.Role),
		ActorID:  actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toUserResponse(user))
}

// GetByID returns one user
func (h *UserHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}

// List returns a paginated user list
func (h *UserHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := identity.UserFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		IsActive: req.IsActive,
	}
	if req.Role != "" {
		role := identity.Role(req.Role)
		filter.Role = &role
	}

	result, err := h.userService.ListUsers(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toUserResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// ChangeRole changes a user's role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), userID, identity.Role(req.Role), actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}

// GrantPermission grants an explicit permission tag to a user
func (h *UserHandler) GrantPermission(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	user, err := h.userService.GrantPermission(c.Request.Context(), userID, req.Permission, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}

// RevokePermission removes an explicit permission tag from a user
func (h *UserHandler) RevokePermission(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	user, err := h.userService.RevokePermission(c.Request.Context(), userID, req.Permission, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}

// AddToGroup adds a user to a permission group
func (h *UserHandler) AddToGroup(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	user, err := h.userService.AddToGroup(c.Request.Context(), userID, req.GroupID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}

// RemoveFromGroup removes a user from a permission group
func (h *UserHandler) RemoveFromGroup(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	user, err := h.userService.RemoveFromGroup(c.Request.Context(), userID, req.GroupID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}

// Deactivate deactivates a user account
func (h *UserHandler) Deactivate(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := h.userService.DeactivateUser(c.Request.Context(), userID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}
