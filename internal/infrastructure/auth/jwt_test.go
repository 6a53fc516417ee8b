package auth

import (
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		TokenExpiration: expiration,
		Issuer:          "fintrack-test",
	})
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewUser("maria.santos", "Maria Santos", identity.RoleFinancialDirector)
	require.NoError(t, err)
	return u
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := newTestService(time.Hour)
	user := newTestUser(t)

	token, err := service.GenerateToken(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := service.ValidateToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "maria.santos", claims.Username)
	assert.Equal(t, string(identity.RoleFinancialDirector), claims.Role)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	service := newTestService(-time.Minute)
	token, err := service.GenerateToken(newTestUser(t))
	require.NoError(t, err)

	_, err = service.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issued := newTestService(time.Hour)
	token, err := issued.GenerateToken(newTestUser(t))
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:          "a-completely-different-signing-secret",
		TokenExpiration: time.Hour,
		Issuer:          "fintrack-test",
	})
	_, err = other.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	service := newTestService(time.Hour)
	_, err := service.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
