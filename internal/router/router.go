// Package router assembles the Fiber application for the analytics service.
package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/handlers"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/middleware"
	"github.com/soltixdb/eventseries/internal/pipeline"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, cfg config.Config) {
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Unauthenticated
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))
	v1.Post("/normalize", h.Normalize)
	v1.Post("/buckets", h.Buckets)
	v1.Post("/statistics", h.Statistics)
	v1.Post("/rolling", h.Rolling)
	v1.Post("/anomalies", h.Anomalies)
	v1.Post("/correlation", h.Correlation)
	v1.Post("/analyze", h.Analyze)

	app.Use(h.NotFound)
}

// New creates the Fiber app serving the analysis API
func New(logger *logging.Logger, p *pipeline.Pipeline, cfg config.Config, version string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "eventseries analytics",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, handlers.New(logger, p, cfg.Analytics, version), cfg)
	return app
}
