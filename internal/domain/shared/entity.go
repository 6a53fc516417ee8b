package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with a stable identity in the domain
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries the identity and lifecycle timestamps every
// persisted entity shares. Aggregates update UpdatedAt themselves when
// they mutate; gorm fills both timestamps on insert.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity generates a fresh identity with both timestamps set to now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}
