// Package main provides the Buyflow API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	redis "github.com/redis/go-redis/v9"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/eventbus"
	"github.com/buyflow/buyflow/pkg/events"
	"github.com/buyflow/buyflow/pkg/formats"
	"github.com/buyflow/buyflow/pkg/orchestrator"
	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	adapters    *adserver.Registry
	eventBus    eventbus.EventBus
	redisURL    string
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	adapters *adserver.Registry,
	eventBus eventbus.EventBus,
	redisURL string,
) *API {
	return &API{
		logger:      logger,
		persistence: store,
		adapters:    adapters,
		eventBus:    eventBus,
		redisURL:    redisURL,
	}
}

func (a *API) App() *fiber.App {
	formatCache := a.formatCache()
	registry := formats.NewCachedRegistry(formats.NewHTTPRegistry(nil), formatCache, a.logger)
	formatValidator := formats.NewValidator(registry)

	orch := orchestrator.New(a.persistence, a.adapters, formatValidator, a.eventBus)

	handlers := web.NewAPIHandlers(orch, a.persistence, a.adapters)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Buyflow API")
	})

	handlers.Register(app)

	return app
}

// formatCache selects redis when configured, otherwise the in-process cache.
func (a *API) formatCache() formats.Cache {
	if a.redisURL == "" {
		return formats.NewMemoryCache(formats.DefaultCacheTTL)
	}

	opts, err := redis.ParseURL(a.redisURL)
	if err != nil {
		a.logger.Error("Invalid redis URL, falling back to in-process format cache", "error", err)

		return formats.NewMemoryCache(formats.DefaultCacheTTL)
	}

	return formats.NewRedisCache(redis.NewClient(opts), formats.DefaultCacheTTL)
}

// SubscribeAuditLog consumes media buy events and writes them to the audit
// log. Consumption is best-effort; the write path never waits on it.
func (a *API) SubscribeAuditLog(ctx context.Context) error {
	auditLogger := a.logger.With("module", "audit")

	logEvent := func(ctx context.Context, event any) error {
		auditLogger.InfoContext(ctx, "media buy event", "event", event)

		return nil
	}

	for _, eventType := range []events.EventType{
		events.MediaBuyCreatedEvent,
		events.MediaBuyPendingApprovalEvent,
		events.MediaBuyApprovedEvent,
		events.MediaBuyRejectedEvent,
		events.MediaBuyFailedEvent,
		events.MediaBuyUpdatedEvent,
	} {
		err := a.eventBus.Handle(eventType, logEvent)
		if err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
