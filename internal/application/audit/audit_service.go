package audit

import (
	"context"
	"fmt"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditService exposes read access to the append-only audit trail.
// Writing happens inside the mutating services; this service never
// records anything itself.
type AuditService struct {
	auditRepo   audit.AuditRepository
	userRepo    identity.UserRepository
	permissions *identity.PermissionTable
	logger      *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(
	auditRepo audit.AuditRepository,
	userRepo identity.UserRepository,
	permissions *identity.PermissionTable,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		auditRepo:   auditRepo,
		userRepo:    userRepo,
		permissions: permissions,
		logger:      logger,
	}
}

// ListEntries lists audit entries with filtering
func (s *AuditService) ListEntries(ctx context.Context, actorID uuid.UUID, filter audit.AuditFilter) (shared.Paginated[audit.AuditEntry], error) {
	var empty shared.Paginated[audit.AuditEntry]
	if err := s.authorize(ctx, actorID); err != nil {
		return empty, err
	}

	items, err := s.auditRepo.FindAll(ctx, filter)
	if err != nil {
		return empty, err
	}
	total, err := s.auditRepo.Count(ctx, filter)
	if err != nil {
		return empty, err
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// EntityTrail returns the full trail for one aggregate, oldest first
func (s *AuditService) EntityTrail(ctx context.Context, actorID uuid.UUID, entityType string, entityID uuid.UUID) ([]audit.AuditEntry, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.auditRepo.FindByEntity(ctx, entityType, entityID)
}

func (s *AuditService) authorize(ctx context.Context, actorID uuid.UUID) error {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !s.permissions.Authorize(actor, identity.PermAuditRead) {
		return shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", identity.PermAuditRead))
	}
	return nil
}
