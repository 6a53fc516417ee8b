package handler

import (
	notificationapp "github.com/fintrack/backend/internal/application/notification"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// NotificationHandler handles notification endpoints scoped to the
// authenticated user
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *notificationapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// NotificationListRequest holds notification list query parameters
type NotificationListRequest struct {
	dto.ListRequest
	Type   string `form:"type" binding:"omitempty,max=40"`
	Unread *bool  `form:"unread"`
}

// UnreadCountResponse carries the unread notification count
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse reports how many notifications were marked
type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}

// List returns the authenticated user's notifications, broadcasts included
func (h *NotificationHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filter := notification.NotificationFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		Unread: req.Unread,
	}
	if req.Type != "" {
		notType := notification.NotificationType(req.Type)
		filter.Type = &notType
	}

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toNotificationResponses(notifications))
}

// UnreadCount returns the authenticated user's unread count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, UnreadCountResponse{Unread: count})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	notificationID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid notification ID format")
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), notificationID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toNotificationResponse(n))
}

// MarkAllRead marks all of the user's notifications as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	marked, err := h.notificationService.MarkAllRead(c.Request.Context(), actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, MarkAllReadResponse{Marked: marked})
}
