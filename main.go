// Package main provides the main entry point for the SentinalGrid outreach platform
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sentinalgrid/sentinalgrid/app/handlers"
	"github.com/sentinalgrid/sentinalgrid/app/middleware"
	"github.com/sentinalgrid/sentinalgrid/app/router"
	"github.com/sentinalgrid/sentinalgrid/app/runner"
	"github.com/sentinalgrid/sentinalgrid/app/services"
	businessflow "github.com/sentinalgrid/sentinalgrid/business_flow"
	"github.com/sentinalgrid/sentinalgrid/config"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting SentinalGrid application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to stdout, a file, or both
func setupLogging(cfg config.LoggingConfig) error {
	switch cfg.Output {
	case "stdout", "":
		return nil
	case "file", "both":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		if cfg.Output == "both" {
			log.SetOutput(io.MultiWriter(f, os.Stdout))
		} else {
			log.SetOutput(f)
		}
		return nil
	default:
		return fmt.Errorf("unknown log output %q", cfg.Output)
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisAddr, cfg.RedisDB)
	return rc, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	// Initialize repositories
	campaignRepo := repository.NewCampaignRepository(db)
	rowRepo := repository.NewDataRowRepository(db)
	settingsRepo := repository.NewPlatformSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.SessionTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	oauthService := services.NewGoogleOAuthService(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.OAuth.RedirectURL,
		30*time.Second,
	)

	agentService, err := services.NewGenAIAgentService(context.Background(), cfg.Agent.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent service: %w", err)
	}

	emailProvider := services.NewSMTPEmailProvider(
		cfg.Email.Host,
		cfg.Email.Port,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.FromEmail,
	)
	whatsappProvider := services.NewWAHAProvider(
		cfg.WhatsApp.BaseURL,
		cfg.WhatsApp.Session,
		cfg.WhatsApp.APIKey,
		cfg.WhatsApp.Timeout,
	)
	messenger := services.NewMessenger(emailProvider, whatsappProvider, log.Default())

	spreadsheetService := services.NewSpreadsheetService()

	// Initialize flows
	settingsFlow := businessflow.NewSettingsFlow(
		settingsRepo,
		auditRepo,
		rc,
		cfg.Agent.AllowedModels,
		cfg.Agent.DefaultModel,
	)

	campaignRunner := runner.New(
		campaignRepo,
		rowRepo,
		auditRepo,
		agentService,
		messenger,
		settingsFlow,
		utils.InterRowDelay,
		log.Default(),
	)

	campaignFlow := businessflow.NewCampaignFlow(
		campaignRepo,
		rowRepo,
		auditRepo,
		spreadsheetService,
		campaignRunner,
		rc,
		db,
	)

	replyFlow := businessflow.NewReplyFlow(
		rowRepo,
		auditRepo,
		agentService,
		settingsFlow,
		cfg.Agent.ConfidenceThreshold,
		db,
	)

	reviewFlow := businessflow.NewReviewFlow(
		campaignRepo,
		rowRepo,
		auditRepo,
		db,
	)

	authFlow := businessflow.NewAuthFlow(
		oauthService,
		tokenService,
		auditRepo,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authFlow, cfg.OAuth.FrontendURL)
	campaignHandler := handlers.NewCampaignHandler(campaignFlow, reviewFlow)
	webhookHandler := handlers.NewWebhookHandler(replyFlow)
	settingsHandler := handlers.NewSettingsHandler(settingsFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	appRouter := router.NewFiberRouter(
		authHandler,
		campaignHandler,
		webhookHandler,
		settingsHandler,
		authMiddleware,
		cfg.Security,
	)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
