package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/eventseries/internal/models"
)

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Detectors: h.pipeline.Detectors(),
		Defaults:  h.defaults.String(),
	})
}

// NotFound is the fallback for unmatched routes
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "no route for " + c.Method() + " " + c.Path(),
			Path:    c.Path(),
		},
	})
}
