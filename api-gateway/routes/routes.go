package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medtrack/pharmacy-portal/api-gateway/config"
	"github.com/medtrack/pharmacy-portal/api-gateway/health"
	"github.com/medtrack/pharmacy-portal/api-gateway/middleware"
	"github.com/medtrack/pharmacy-portal/api-gateway/proxy"
)

// RouteDefinition defines a route mapping
type RouteDefinition struct {
	Prefix         string
	ServiceName    string
	Description    string
	RequireAuth    bool
	RequireManager bool // Requires branch manager role
}

// Routes holds all route definitions
var Routes = []RouteDefinition{
	// Public routes (no auth required)
	{
		Prefix:      "/auth",
		ServiceName: "portal",
		Description: "Authentication endpoints (login)",
		RequireAuth: false,
	},

	// Portal routes (most specific prefix first)
	{
		Prefix:         "/api/alerts/events",
		ServiceName:    "portal",
		Description:    "Raw alert events with severity (manager dashboards)",
		RequireAuth:    true,
		RequireManager: true,
	},
	{
		Prefix:      "/api/alerts",
		ServiceName: "portal",
		Description: "Inventory alert evaluation",
		RequireAuth: true,
	},
	{
		Prefix:      "/api/notifications",
		ServiceName: "portal",
		Description: "Notification feed and read-state",
		RequireAuth: true,
	},
	{
		Prefix:      "/api/relay",
		ServiceName: "portal",
		Description: "Detached chat surface relay",
		RequireAuth: true,
	},

	// Messaging service routes
	{
		Prefix:      "/api/chat",
		ServiceName: "messaging",
		Description: "Conversations and messages",
		RequireAuth: true,
	},
}

// SetupRoutes configures all routes in the gateway
func SetupRoutes(app *fiber.App, cfg *config.GatewayConfig, cbManager *middleware.CircuitBreakerManager) {
	reverseProxy := proxy.NewReverseProxy(cfg)
	healthChecker := health.NewHealthChecker(cfg)

	// Circuit breaker state per upstream
	app.Get("/health/circuits", func(c *fiber.Ctx) error {
		return c.JSON(cbManager.GetAllStats())
	})

	// Gateway quick health check (no downstream checks)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.QuickCheck())
	})

	// Liveness probe
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
		})
	})

	// Readiness probe (checks upstream services)
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		healthStatus := healthChecker.CheckAllServices(ctx)

		statusCode := fiber.StatusOK
		if healthStatus.Status == "unhealthy" {
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(healthStatus)
	})

	// Detailed service health checks
	app.Get("/health/services", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		return c.JSON(healthChecker.CheckAllServices(ctx))
	})

	// API routes overview
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Pharmacy Portal Gateway",
			"version": "1.0.0",
			"routes":  Routes,
		})
	})

	for _, route := range Routes {
		registerServiceRoutes(app, route, reverseProxy)
	}
}

// registerServiceRoutes registers all HTTP methods for a service prefix
func registerServiceRoutes(app *fiber.App, route RouteDefinition, proxyHandler *proxy.ReverseProxy) {
	handler := func(c *fiber.Ctx) error {
		return proxyHandler.ProxyRequest(c, route.ServiceName)
	}

	var middlewares []fiber.Handler
	if route.RequireManager {
		// Manager routes need both auth and the role check
		middlewares = append(middlewares, middleware.AuthMiddleware(), middleware.ManagerMiddleware())
	} else if route.RequireAuth {
		middlewares = append(middlewares, middleware.AuthMiddleware())
	}

	group := app.Group(route.Prefix, middlewares...)
	group.All("/*", handler)

	// Also handle the exact prefix path (without /*)
	if len(middlewares) > 0 {
		app.All(route.Prefix, append(middlewares, handler)...)
	} else {
		app.All(route.Prefix, handler)
	}
}
