package audit

import (
	"context"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/application/apptest"
	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type auditFixture struct {
	service  *AuditService
	auditor  *apptest.MemoryAuditor
	director *identity.User
	plain    *identity.User
}

func newAuditFixture(t *testing.T) *auditFixture {
	t.Helper()

	director, err := identity.NewUser("ana.costa", "Ana Costa", identity.RoleFinancialDirector)
	require.NoError(t, err)
	plain, err := identity.NewUser("viewer", "Viewer", identity.RoleUser)
	require.NoError(t, err)

	users := apptest.NewMemoryUserRepo()
	users.Seed(director, plain)

	f := &auditFixture{
		auditor:  &apptest.MemoryAuditor{},
		director: director,
		plain:    plain,
	}
	f.service = NewAuditService(f.auditor, users, identity.DefaultPermissionTable(), zap.NewNop())
	return f
}

func (f *auditFixture) record(t *testing.T, entityType string, entityID uuid.UUID, action string) {
	t.Helper()
	entry, err := audit.NewAuditEntry(entityType, entityID, action, f.director.ID, "detail", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.auditor.Record(context.Background(), entry))
}

func TestAuditService_ListEntries(t *testing.T) {
	t.Run("lists recorded entries", func(t *testing.T) {
		f := newAuditFixture(t)
		f.record(t, "Payment", uuid.New(), "payment.created")
		f.record(t, "Cheque", uuid.New(), "cheque.issued")

		page, err := f.service.ListEntries(context.Background(), f.director.ID, audit.AuditFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Len(t, page.Items, 2)
	})

	t.Run("filters by entity type", func(t *testing.T) {
		f := newAuditFixture(t)
		f.record(t, "Payment", uuid.New(), "payment.created")
		f.record(t, "Cheque", uuid.New(), "cheque.issued")

		entityType := "Payment"
		page, err := f.service.ListEntries(context.Background(), f.director.ID, audit.AuditFilter{EntityType: &entityType})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "payment.created", page.Items[0].Action)
	})

	t.Run("requires audit read permission", func(t *testing.T) {
		f := newAuditFixture(t)
		_, err := f.service.ListEntries(context.Background(), f.plain.ID, audit.AuditFilter{})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))
	})
}

func TestAuditService_EntityTrail(t *testing.T) {
	f := newAuditFixture(t)
	paymentID := uuid.New()
	f.record(t, "Payment", paymentID, "payment.created")
	f.record(t, "Payment", paymentID, "payment.partial_registered")
	f.record(t, "Payment", uuid.New(), "payment.created")

	trail, err := f.service.EntityTrail(context.Background(), f.director.ID, "Payment", paymentID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "payment.created", trail[0].Action)
	assert.Equal(t, "payment.partial_registered", trail[1].Action)
}
