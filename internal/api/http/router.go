package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-portal/internal/api/http/handlers"
	"github.com/spec-kit/request-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	requests := api.Group("/requests", cfg.AuthMiddleware.Handle)
	requests.Get("/", cfg.Requests.List)
	requests.Post("/", cfg.Requests.Create)
	requests.Patch("/:id", cfg.Requests.Update)
	requests.Delete("/:id", cfg.Requests.Delete)
}
