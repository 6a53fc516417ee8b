package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with valid inputs", func(t *testing.T) {
		u, err := NewUser("joao.silva", "João Silva", RoleFinancialDirector)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, "joao.silva", u.Username)
		assert.Equal(t, RoleFinancialDirector, u.Role)
		assert.True(t, u.IsActive)
		assert.Empty(t, u.Permissions)
		assert.Empty(t, u.PermissionGroups)
		assert.NotEmpty(t, u.GetDomainEvents())
	})

	t.Run("fails with empty username", func(t *testing.T) {
		_, err := NewUser("", "Name", RoleUser)
		require.Error(t, err)
	})

	t.Run("fails with short username", func(t *testing.T) {
		_, err := NewUser("ab", "Name", RoleUser)
		require.Error(t, err)
	})

	t.Run("fails with invalid role", func(t *testing.T) {
		_, err := NewUser("valid.name", "Name", Role("SUPERVISOR"))
		require.Error(t, err)
	})
}

func TestUser_Permissions(t *testing.T) {
	t.Run("grants and revokes explicit permissions", func(t *testing.T) {
		u := newTestUser(t, RoleUser)
		require.NoError(t, u.GrantPermission(PermPaymentCreate))
		assert.Contains(t, u.Permissions, PermPaymentCreate)

		require.NoError(t, u.RevokePermission(PermPaymentCreate))
		assert.NotContains(t, u.Permissions, PermPaymentCreate)
	})

	t.Run("rejects duplicate grant", func(t *testing.T) {
		u := newTestUser(t, RoleUser)
		require.NoError(t, u.GrantPermission(PermPaymentCreate))
		require.Error(t, u.GrantPermission(PermPaymentCreate))
	})

	t.Run("rejects revoking absent permission", func(t *testing.T) {
		u := newTestUser(t, RoleUser)
		require.Error(t, u.RevokePermission(PermPaymentCreate))
	})
}

func TestUser_Groups(t *testing.T) {
	u := newTestUser(t, RoleUser)

	require.NoError(t, u.AddToGroup("treasury"))
	assert.Contains(t, u.PermissionGroups, "treasury")

	require.Error(t, u.AddToGroup("treasury"))

	require.NoError(t, u.RemoveFromGroup("treasury"))
	assert.Empty(t, u.PermissionGroups)

	require.Error(t, u.RemoveFromGroup("treasury"))
}

func TestUser_Lifecycle(t *testing.T) {
	u := newTestUser(t, RoleUser)

	require.NoError(t, u.Deactivate())
	assert.False(t, u.IsActive)
	require.Error(t, u.Deactivate())

	require.NoError(t, u.Activate())
	assert.True(t, u.IsActive)
	require.Error(t, u.Activate())
}
