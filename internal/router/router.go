package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/handlers"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/metrics"
	"github.com/seriesdash/seriesdash/internal/middleware"
	"github.com/seriesdash/seriesdash/internal/services"
)

// Dependencies are the services the routes are served by
type Dependencies struct {
	ForecastService  *services.ForecastService
	DecomposeService *services.DecomposeService
	Metrics          *metrics.Metrics
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, deps Dependencies, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, cfg, deps.ForecastService, deps.DecomposeService, deps.Metrics)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID,Content-Disposition",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))
	app.Use(compress.New())

	app.Get("/health", h.Health)
	app.Get("/metrics", h.Metrics())

	v1 := app.Group("/v1", middleware.RateLimit(middleware.RateLimitConfig{
		Rate:  cfg.Server.RateLimit,
		Burst: cfg.Server.RateBurst,
	}))

	v1.Get("/methods", h.ListMethods)
	v1.Post("/forecast", h.Forecast)
	v1.Post("/forecast/export", h.ForecastExport)
	v1.Post("/decompose", h.Decompose)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, deps Dependencies, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "seriesdash",
		DisableStartupMessage: !cfg.IsDevelopment(),
		EnablePrintRoutes:     cfg.IsDevelopment(),
		BodyLimit:             cfg.Server.BodyLimit(),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, deps, cfg)

	return app
}
