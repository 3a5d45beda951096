package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Status         *handlers.StatusHandler
	AuthMiddleware *auth.APIAuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	status := app.Group("/status", cfg.AuthMiddleware.Handle)
	status.Get("/tickets", cfg.Status.Tickets)
	status.Get("/categories", cfg.Status.Categories)
	status.Get("/metrics", cfg.Status.Metrics)
}
