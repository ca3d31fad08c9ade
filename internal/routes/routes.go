package routes

import (
	"context"
	"fmt"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/StudioOnboardBack/internal/config"
	"github.com/saeid-a/StudioOnboardBack/internal/handlers"
	"github.com/saeid-a/StudioOnboardBack/internal/middleware"
	"github.com/saeid-a/StudioOnboardBack/internal/repository"
	"github.com/saeid-a/StudioOnboardBack/internal/services"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
	eventsws "github.com/saeid-a/StudioOnboardBack/internal/websocket"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

// RegisterRoutes wires the onboarding service onto app. Background workers
// (event hub, session janitor, redis client) live until ctx is done. db may be
// nil, in which case the built-in catalog is served.
func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *pgxpool.Pool, log *zap.Logger) error {
	var (
		catalog *services.CatalogService
		err     error
	)
	if db != nil {
		catalog, err = services.LoadCatalog(ctx, repository.NewCatalogRepository(db), cfg.EnquiryFormURL, log)
	} else {
		catalog, err = services.LoadCatalog(ctx, nil, cfg.EnquiryFormURL, log)
	}
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	sessionStore, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	var sink services.BaselineSink
	logSink := services.NewLogSink(log)
	if cfg.BaselineSinkURL != "" {
		sink = services.NewHTTPSink(cfg.BaselineSinkURL, cfg.BaselineSinkTimeout)
		log.Info("baseline submissions forwarded", zap.String("url", cfg.BaselineSinkURL))
	} else {
		sink = logSink
	}

	hub := eventsws.NewHub(log)
	go hub.Run(ctx)

	onboardingService := services.NewOnboardingService(
		catalog.Steps(),
		sessionStore,
		sink,
		hub,
		log,
		cfg.BaselineSinkTimeout,
	)

	catalogHandler := handlers.NewCatalogHandler(catalog)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService, cfg.JWTSecret, cfg.SessionTTL, cfg.BookingURL, log)
	baselineHandler := handlers.NewBaselineHandler(logSink)
	bookingHandler := handlers.NewBookingHandler(onboardingService, cfg.BookingWebhookKey, log)
	eventsHandler := handlers.NewEventsHandler(onboardingService, hub, log)

	api := app.Group("/api")
	api.Get("/packages", catalogHandler.ListPackages)
	api.Get("/onboarding/steps", catalogHandler.ListSteps)
	api.Post("/onboarding/sessions", onboardingHandler.StartSession)
	api.Post("/onboarding/baseline", baselineHandler.Receive)
	api.Post("/booking/webhook", bookingHandler.Webhook)

	sessionProtected := api.Group("/v1/onboarding", middleware.SessionRequired(cfg.JWTSecret))
	sessionProtected.Get("", onboardingHandler.GetSession)
	sessionProtected.Delete("", onboardingHandler.EndSession)
	sessionProtected.Post("/steps/:step/toggle", onboardingHandler.ToggleStep)
	sessionProtected.Put("/booking", onboardingHandler.SetBooking)
	sessionProtected.Post("/confirm", onboardingHandler.ConfirmOnboarding)
	sessionProtected.Post("/baseline", onboardingHandler.SubmitBaseline)
	sessionProtected.Get("/ws", eventsHandler.Upgrade, websocket.New(eventsHandler.HandleWebSocket))

	if !cfg.WebhookEnabled() {
		log.Warn("BOOKING_WEBHOOK_SECRET not set, booking webhook disabled")
	}

	return registerDocsRoutes(app, cfg)
}

func newSessionStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.RedisAddr == "" {
		memoryStore := store.NewMemoryStore(cfg.SessionTTL)
		go memoryStore.RunJanitor(ctx, janitorInterval)
		log.Info("using in-memory session store", zap.Duration("ttl", cfg.SessionTTL))
		return memoryStore, nil
	}

	client, err := store.NewRedisClient(ctx, store.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	go func() {
		<-ctx.Done()
		if err := client.Close(); err != nil {
			log.Warn("close redis client", zap.Error(err))
		}
	}()

	log.Info("using redis session store",
		zap.String("addr", cfg.RedisAddr),
		zap.String("prefix", cfg.RedisPrefix),
		zap.Duration("ttl", cfg.SessionTTL),
	)
	return store.NewRedisStore(client, cfg.RedisPrefix, cfg.SessionTTL), nil
}
