// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/config"
	"github.com/iliyamo/event-ticketing-admin/internal/handler"
	"github.com/iliyamo/event-ticketing-admin/internal/middleware"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Tickets  *handler.TicketHandler
	Webhooks *handler.WebhookHandler
	Admin    *handler.AdminHandler
	Health   echo.HandlerFunc
}

// Options configure the cross-cutting middleware.
type Options struct {
	JWTSecret string
	Limit     config.RateLimitConfig
	Redis     *redis.Client // nil disables rate limiting
	Log       *zap.Logger
}

// Register installs the global middleware and every route.
func Register(e *echo.Echo, h Handlers, o Options) {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	e.Use(middleware.RequestID(), middleware.AccessLog(o.Log))

	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// webhooks authenticate by signature and are never rate limited
	RegisterWebhooks(e, h.Webhooks)

	limited := e.Group("/v1", middleware.RateLimit(o.Limit, o.Redis, o.Log))
	RegisterAuth(limited, h.Auth)
	RegisterPublic(limited, h.Events)

	admin := limited.Group("", middleware.JWTAuth(o.JWTSecret), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/me", h.Auth.Me)
	RegisterAdmin(admin, h)
}

// RegisterAuth registers the session endpoints under /v1/auth. None of
// them needs an existing access token.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler) {
	auth := g.Group("/auth")
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated event browsing endpoints.
func RegisterPublic(g *echo.Group, ev *handler.EventHandler) {
	g.GET("/events", ev.List)
	g.GET("/events/popular", ev.Popular)
}

// RegisterWebhooks registers the catalog delivery endpoint.
func RegisterWebhooks(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/v1/webhooks/catalog", w.Receive)
	e.GET("/v1/webhooks/health", w.Health)
}

// RegisterAdmin registers the ADMIN-only management endpoints on a group
// that already carries JWT and role middleware.
func RegisterAdmin(g *echo.Group, h Handlers) {
	g.POST("/events", h.Events.Create)
	g.GET("/events/:id", h.Events.Get)
	g.PATCH("/events/:id", h.Events.Update)
	g.DELETE("/events/:id", h.Events.Delete)
	g.POST("/events/:id/publish", h.Events.Publish)
	g.POST("/events/:id/archive", h.Events.Archive)
	g.PUT("/events/:id/featured", h.Events.Feature)

	g.GET("/events/:id/tickets", h.Tickets.List)
	g.POST("/events/:id/tickets", h.Tickets.Create)
	g.PATCH("/events/:id/tickets/:ticket_id", h.Tickets.Update)
	g.DELETE("/events/:id/tickets/:ticket_id", h.Tickets.Delete)

	g.GET("/orders", h.Admin.ListOrders)
	g.GET("/admin/webhooks", h.Admin.RecentWebhooks)
	g.GET("/admin/cache", h.Admin.CacheStats)
	g.DELETE("/admin/cache", h.Admin.FlushCache)
}
