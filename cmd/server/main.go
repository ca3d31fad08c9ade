package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/StudioOnboardBack/internal/config"
	"github.com/saeid-a/StudioOnboardBack/internal/database"
	applog "github.com/saeid-a/StudioOnboardBack/internal/logger"
	"github.com/saeid-a/StudioOnboardBack/internal/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog := applog.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database (optional, catalog falls back to built-ins)
	var db *pgxpool.Pool
	if cfg.DBUrl != "" {
		db, err = database.Connect(ctx, cfg.DBUrl, zlog)
		if err != nil {
			zlog.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
	} else {
		zlog.Warn("DB_URL not set, serving built-in catalog")
	}

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:               "studio-onboarding",
		Immutable:             true,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(ctx, app, cfg, db, zlog); err != nil {
		zlog.Fatal("failed to register routes", zap.Error(err))
	}

	// 4. Start Server
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		return app.Listen(":" + cfg.Port)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		zlog.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}
}
