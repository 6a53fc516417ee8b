package handler

import (
	backupapp "github.com/fintrack/backend/internal/application/backup"
	"github.com/gin-gonic/gin"
)

// BackupHandler handles snapshot export and import endpoints
type BackupHandler struct {
	BaseHandler
	backupService *backupapp.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backupService *backupapp.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// Export serializes every collection into a snapshot
func (h *BackupHandler) Export(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	snapshot, err := h.backupService.Export(c.Request.Context(), actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// Import restores a snapshot, re-deriving computed fields on load
func (h *BackupHandler) Import(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var snapshot backupapp.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		h.BindingError(c, err)
		return
	}

	summary, err := h.backupService.Import(c.Request.Context(), &snapshot, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
