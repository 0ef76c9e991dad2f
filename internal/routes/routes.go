package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authService *services.AuthService,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	authLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	auth.Post("/login", authLimiter, authHandler.Login)
	auth.Post("/refresh", authLimiter, authHandler.Refresh)

	auth.Post("/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	auth.Get("/me", middleware.JWTProtected(cfg), middleware.LoadPrincipal(authService), authHandler.Me)

	admin := api.Group("/admin",
		middleware.JWTProtected(cfg),
		middleware.LoadPrincipal(authService),
		middleware.AdminRequired(),
	)

	// Plugins attach their own auth per route on the public group.
	for _, p := range plugins {
		p.RegisterRoutes(api, db, cfg)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin, db, cfg)
		}
	}
}
