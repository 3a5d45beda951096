package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway/discord"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.NewFileStore(cfg.Store.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	snapshot, err := store.Load(ctx)
	if err != nil {
		logger.Fatal("failed to load store", zap.Error(err))
	}

	tickets := registry.NewTicketRegistry(snapshot.Tickets)
	categories := registry.NewCategoryRegistry(snapshot.Categories)
	supportRole := registry.NewSupportRole(snapshot.SupportRoleID)
	policy := auth.NewPolicy(supportRole)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	session, err := discord.NewSession(cfg.Bot)
	if err != nil {
		logger.Fatal("failed to build discord session", zap.Error(err))
	}
	surface := discord.NewSurface(session, cfg.Bot.GuildID, logger)

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		Tickets:     tickets,
		Categories:  categories,
		SupportRole: supportRole,
		Policy:      policy,
		Store:       store,
		Surface:     surface,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	admin := service.NewAdminService(service.AdminDependencies{
		Categories:  categories,
		SupportRole: supportRole,
		Policy:      policy,
		Store:       store,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	notifications := service.NewNotificationService(dispatcher, surface, logger)
	worker.StartNotificationWorker(notifications)

	gateway := discord.NewGateway(session, cfg.Bot, lifecycle, admin, metrics, logger)
	if err := gateway.Start(ctx); err != nil {
		logger.Fatal("failed to start gateway", zap.Error(err))
	}
	defer gateway.Stop() //nolint:errcheck

	var app *fiber.App
	if cfg.API.Enabled {
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		authMiddleware := auth.NewAPIAuthMiddleware(tokens)

		app = fiber.New(fiber.Config{DisableStartupMessage: true})
		httptransport.RegisterMiddlewares(app, logger, cfg.API.RequestTimeout())
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, gateway),
			Status:         handlers.NewStatusHandler(tickets, categories, supportRole, metrics),
			AuthMiddleware: authMiddleware,
		})

		go func() {
			if err := app.Listen(cfg.API.Addr()); err != nil {
				logger.Fatal("fiber listen", zap.Error(err))
			}
		}()
	}

	waitForShutdown(logger)

	if app != nil {
		_ = app.Shutdown()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
