package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/apps/catalog"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/archive"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	db := database.DB

	if err := database.MigrateShared(db); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// DB log handler (ERROR+ batched)
	dbLogHandler := logging.NewDBHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewStdoutHandler(cfg.LogLevel),
		dbLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Services
	authService := services.NewAuthService(db, cfg)
	appMetrics := metrics.New()

	var exportArchiver archive.Archiver
	if cfg.ArchiveEnabled() {
		s3Archiver, err := archive.NewS3(context.Background(), archive.Config{
			Bucket:          cfg.ArchiveBucket,
			Region:          cfg.ArchiveRegion,
			Endpoint:        cfg.ArchiveEndpoint,
			PathStyle:       cfg.ArchivePathStyle,
			AccessKeyID:     cfg.ArchiveAccessKeyID,
			SecretAccessKey: cfg.ArchiveSecretAccessKey,
		})
		if err != nil {
			slog.Error("export archive disabled", "error", err, "bucket", cfg.ArchiveBucket)
		} else {
			exportArchiver = s3Archiver
			slog.Info("export archive enabled", "bucket", cfg.ArchiveBucket)
		}
	}

	plugins := []apps.Plugin{
		catalog.New(authService, appMetrics, exportArchiver),
	}

	// Migrate plugin models
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(db, models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Seed admin account and catalog data
	if cfg.SeedOnStart {
		if _, created, err := authService.EnsureUser(context.Background(), cfg.SeedAdminEmail, cfg.SeedAdminPassword, true); err != nil {
			slog.Error("admin seed failed", "error", err)
		} else if created {
			slog.Info("created admin user", "user_email", cfg.SeedAdminEmail)
		}
		for _, p := range plugins {
			if s, ok := p.(apps.Seeder); ok {
				if err := s.Seed(db, cfg); err != nil {
					slog.Error("plugin seed failed", "plugin", p.ID(), "error", err)
				}
			}
		}
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(db)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.ImportMaxBytes,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(appMetrics.Middleware())

	app.Get("/metrics", appMetrics.Handler())

	// Routes
	routes.Setup(app, cfg, db, authService, authHandler, healthHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
