package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/fintrack/backend/internal/application/audit"
	backupapp "github.com/fintrack/backend/internal/application/backup"
	chequeapp "github.com/fintrack/backend/internal/application/cheque"
	fundapp "github.com/fintrack/backend/internal/application/fund"
	identityapp "github.com/fintrack/backend/internal/application/identity"
	notificationapp "github.com/fintrack/backend/internal/application/notification"
	paymentapp "github.com/fintrack/backend/internal/application/payment"
	workflowapp "github.com/fintrack/backend/internal/application/workflow"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/fintrack/backend/internal/infrastructure/auth"
	"github.com/fintrack/backend/internal/infrastructure/config"
	"github.com/fintrack/backend/internal/infrastructure/event"
	"github.com/fintrack/backend/internal/infrastructure/logger"
	"github.com/fintrack/backend/internal/infrastructure/notify"
	"github.com/fintrack/backend/internal/infrastructure/persistence"
	"github.com/fintrack/backend/internal/infrastructure/scheduler"
	"github.com/fintrack/backend/internal/interfaces/http/handler"
	"github.com/fintrack/backend/internal/interfaces/http/middleware"
	"github.com/fintrack/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fintrack backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLog := logger.NewGormLogger(log, 200*time.Millisecond)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	fundRepo := persistence.NewGormFundRepository(db.DB)
	chequeRepo := persistence.NewGormChequeRepository(db.DB)
	workflowRepo := persistence.NewGormWorkflowRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Event bus with a wildcard logging handler
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	permTable := identity.DefaultPermissionTable()
	dispatcher := notify.NewLogDispatcher(log)
	decidePolicy := workflow.DecidePolicy{RequireIdentityMatch: cfg.Workflow.RequireIdentityMatch}

	// Application services
	userService := identityapp.NewUserService(userRepo, permTable, auditRepo, eventBus, log)
	paymentService := paymentapp.NewPaymentService(paymentRepo, fundRepo, chequeRepo, userRepo, permTable, auditRepo, eventBus, txManager, log)
	fundService := fundapp.NewFundService(fundRepo, userRepo, permTable, auditRepo, eventBus, txManager, log)
	chequeService := chequeapp.NewChequeService(chequeRepo, userRepo, permTable, auditRepo, eventBus, txManager, log)
	approvalService := workflowapp.NewApprovalService(workflowRepo, userRepo, permTable, notificationRepo, dispatcher, auditRepo, eventBus, txManager, decidePolicy, log)
	notificationService := notificationapp.NewNotificationService(notificationRepo, log)
	auditService := auditapp.NewAuditService(auditRepo, userRepo, permTable, log)
	backupService := backupapp.NewBackupService(userRepo, paymentRepo, fundRepo, chequeRepo, workflowRepo, notificationRepo, permTable, auditRepo, txManager, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Background overdue sweeper
	sweeper := scheduler.NewOverdueSweeper(scheduler.SweeperConfig{
		Enabled:       cfg.Sweep.Enabled,
		CheckInterval: cfg.Sweep.CheckInterval,
	}, paymentService, log)
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start overdue sweeper", zap.Error(err))
	}

	engine := router.New(router.Config{
		JWTService: jwtService,
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Logger:              log,
		AuthHandler:         handler.NewAuthHandler(userService, jwtService),
		UserHandler:         handler.NewUserHandler(userService),
		PaymentHandler:      handler.NewPaymentHandler(paymentService),
		FundHandler:         handler.NewFundHandler(fundService),
		ChequeHandler:       handler.NewChequeHandler(chequeService),
		WorkflowHandler:     handler.NewWorkflowHandler(approvalService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		AuditHandler:        handler.NewAuditHandler(auditService),
		BackupHandler:       handler.NewBackupHandler(backupService),
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping overdue sweeper", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
