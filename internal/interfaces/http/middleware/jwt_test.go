package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/infrastructure/auth"
	"github.com/fintrack/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTTestRig(t *testing.T, expiration time.Duration) (*auth.JWTService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:          "middleware-test-secret-0123456789abcdef",
		TokenExpiration: expiration,
		Issuer:          "fintrack-test",
	})

	engine := gin.New()
	engine.Use(JWTAuthMiddleware(jwtService))
	engine.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c), "username": GetJWTUsername(c)})
	})
	engine.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return jwtService, engine
}

func issueToken(t *testing.T, jwtService *auth.JWTService) string {
	t.Helper()
	user, err := identity.NewUser("treasurer", "Treasurer", identity.RoleFinancialDirector)
	require.NoError(t, err)
	token, err := jwtService.GenerateToken(user)
	require.NoError(t, err)
	return token.Value
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	jwtService, engine := newJWTTestRig(t, time.Hour)
	token := issueToken(t, jwtService)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "treasurer")
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, engine := newJWTTestRig(t, time.Hour)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	jwtService, engine := newJWTTestRig(t, time.Hour)
	token := issueToken(t, jwtService)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token) // no Bearer prefix
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	jwtService, engine := newJWTTestRig(t, -time.Minute)
	token := issueToken(t, jwtService)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	_, engine := newJWTTestRig(t, time.Hour)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
