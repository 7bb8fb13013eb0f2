package http

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FiberConfig returns the app settings shared by the server and handler tests.
func FiberConfig(appName string, errorHandler fiber.ErrorHandler) fiber.Config {
	return fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
	}
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	withBody := RequireJSON(true)
	jsonOnly := RequireJSON(false)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", withBody, cfg.Users.Register)
	authGroup.Post("/login", withBody, cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Users.Me)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Post("/tickets", withBody, cfg.Tickets.CreateTicket)
	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)
	protected.Put("/tickets/:id", withBody, cfg.Tickets.UpdateTicket)
	protected.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)
	protected.Post("/tickets/:id/assign", withBody, cfg.Tickets.AssignTicket)
	protected.Delete("/tickets/:id/assign", cfg.Tickets.UnassignTicket)
	protected.Post("/tickets/:id/start", jsonOnly, cfg.Tickets.StartTicket)
	protected.Post("/tickets/:id/close", jsonOnly, cfg.Tickets.CloseTicket)

	protected.Get("/tickets/:id/comments", cfg.Comments.ListComments)
	protected.Post("/tickets/:id/comments", withBody, cfg.Comments.AddComment)
	protected.Get("/tickets/:id/comments/audit", auth.RequireRole(domain.RoleAdmin), cfg.Comments.AuditComments)
	protected.Get("/tickets/:id/history", cfg.Comments.History)
	protected.Delete("/comments/:id", cfg.Comments.DeleteComment)

	protected.Get("/users/:id/tickets/owned", cfg.Tickets.OwnedTickets)
	protected.Get("/users/:id/tickets/assigned", cfg.Tickets.AssignedTickets)
}
