package router

import (
	"net/http"

	"github.com/fintrack/backend/internal/infrastructure/auth"
	"github.com/fintrack/backend/internal/interfaces/http/handler"
	"github.com/fintrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds everything the router needs to wire the API surface
type Config struct {
	JWTService *auth.JWTService
	CORS       middleware.CORSConfig
	Logger     *zap.Logger

	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	PaymentHandler      *handler.PaymentHandler
	FundHandler         *handler.FundHandler
	ChequeHandler       *handler.ChequeHandler
	WorkflowHandler     *handler.WorkflowHandler
	NotificationHandler *handler.NotificationHandler
	AuditHandler        *handler.AuditHandler
	BackupHandler       *handler.BackupHandler
}

// New builds the gin engine with middleware and all API routes
func New(cfg Config) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()

	engine.Use(middleware.Recovery(cfg.Logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(cfg.Logger))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: cfg.JWTService,
		SkipPaths:  []string{"/api/v1/auth/login"},
		Logger:     cfg.Logger,
	}))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", cfg.AuthHandler.Login)
		authGroup.GET("/me", cfg.AuthHandler.Me)
	}

	users := api.Group("/users")
	{
		users.POST("", cfg.UserHandler.Create)
		users.GET("", cfg.UserHandler.List)
		users.GET("/:id", cfg.UserHandler.GetByID)
		users.PUT("/:id/role", cfg.UserHandler.ChangeRole)
		users.POST("/:id/permissions", cfg.UserHandler.GrantPermission)
		users.DELETE("/:id/permissions", cfg.UserHandler.RevokePermission)
		users.POST("/:id/groups", cfg.UserHandler.AddToGroup)
		users.DELETE("/:id/groups", cfg.UserHandler.RemoveFromGroup)
		users.POST("/:id/deactivate", cfg.UserHandler.Deactivate)
	}

	payments := api.Group("/payments")
	{
		payments.POST("", cfg.PaymentHandler.Create)
		payments.GET("", cfg.PaymentHandler.List)
		payments.GET("/:id", cfg.PaymentHandler.GetByID)
		payments.POST("/:id/partials", cfg.PaymentHandler.RegisterPartial)
		payments.POST("/:id/cancel", cfg.PaymentHandler.Cancel)
		payments.POST("/sweep-overdue", cfg.PaymentHandler.SweepOverdue)
	}

	funds := api.Group("/funds")
	{
		funds.POST("", cfg.FundHandler.Create)
		funds.GET("", cfg.FundHandler.List)
		funds.GET("/:id", cfg.FundHandler.GetByID)
		funds.POST("/:id/movements", cfg.FundHandler.AddMovement)
		funds.DELETE("/:id/movements/:movementId", cfg.FundHandler.RemoveMovement)
	}

	cheques := api.Group("/cheques")
	{
		cheques.POST("", cfg.ChequeHandler.Issue)
		cheques.GET("", cfg.ChequeHandler.List)
		cheques.GET("/:id", cfg.ChequeHandler.GetByID)
		cheques.POST("/:id/transition", cfg.ChequeHandler.Transition)
	}

	workflows := api.Group("/workflows")
	{
		workflows.POST("", cfg.WorkflowHandler.Initiate)
		workflows.GET("", cfg.WorkflowHandler.List)
		workflows.GET("/:id", cfg.WorkflowHandler.GetByID)
		workflows.POST("/:id/decide", cfg.WorkflowHandler.Decide)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", cfg.NotificationHandler.List)
		notifications.GET("/unread-count", cfg.NotificationHandler.UnreadCount)
		notifications.POST("/:id/read", cfg.NotificationHandler.MarkRead)
		notifications.POST("/read-all", cfg.NotificationHandler.MarkAllRead)
	}

	auditGroup := api.Group("/audit")
	{
		auditGroup.GET("", cfg.AuditHandler.List)
		auditGroup.GET("/:entityType/:id", cfg.AuditHandler.EntityTrail)
	}

	backup := api.Group("/backup")
	{
		backup.GET("/export", cfg.BackupHandler.Export)
		backup.POST("/import", cfg.BackupHandler.Import)
	}

	return engine
}
