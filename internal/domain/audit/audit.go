package audit

import (
	"context"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditEntry is one append-only record of a mutation applied to an
// aggregate. Entries are never updated or deleted.
type AuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EntityType string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_id"`
	Action     string    `gorm:"type:varchar(100);not null" json:"action"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`
	Detail     string    `gorm:"type:varchar(1000)" json:"detail"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
}

// TableName returns the table name for GORM
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// NewAuditEntry creates an audit record for an applied mutation
func NewAuditEntry(entityType string, entityID uuid.UUID, action string, actorID uuid.UUID, detail string, occurredAt time.Time) (*AuditEntry, error) {
	if entityType == "" || action == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Audit entry requires an entity type and an action")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Audit entry requires an entity ID")
	}

	return &AuditEntry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Detail:     detail,
		OccurredAt: occurredAt,
	}, nil
}

// Recorder appends audit entries. Implementations must treat the trail
// as append-only.
type Recorder interface {
	Record(ctx context.Context, entry *AuditEntry) error
}

// AuditFilter defines filtering options for audit queries
type AuditFilter struct {
	shared.Filter
	EntityType *string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// AuditRepository reads the audit trail
type AuditRepository interface {
	Recorder

	// FindByEntity lists the trail for one aggregate, oldest first
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]AuditEntry, error)

	// FindAll finds audit entries with filtering
	FindAll(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)

	// Count counts audit entries with filtering
	Count(ctx context.Context, filter AuditFilter) (int64, error)
}
