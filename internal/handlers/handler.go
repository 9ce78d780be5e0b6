// Package handlers implements the HTTP analysis API.
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/models"
	"github.com/soltixdb/eventseries/internal/pipeline"
)

// Error codes returned in ErrorResponse for rejected request bodies
const (
	CodeInvalidJSON   = "INVALID_JSON"
	CodeInvalidOption = "INVALID_OPTION"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger   *logging.Logger
	pipeline *pipeline.Pipeline
	defaults config.AnalyticsConfig
	version  string
	started  time.Time
}

// New creates a new handler instance. defaults fill in options a request body leaves out.
func New(logger *logging.Logger, p *pipeline.Pipeline, defaults config.AnalyticsConfig, version string) *Handler {
	return &Handler{
		logger:   logger,
		pipeline: p,
		defaults: defaults,
		version:  version,
		started:  time.Now(),
	}
}

// requestError is a client error reported with a 400 status
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.code + ": " + e.message }

func (h *Handler) badRequest(c *fiber.Ctx, e *requestError) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    e.code,
			Message: e.message,
			Path:    c.Path(),
		},
	})
}

// bindAnalysis parses an AnalysisRequest body and resolves its options
// against the server defaults.
func (h *Handler) bindAnalysis(c *fiber.Ctx) (*models.AnalysisRequest, config.AnalyticsConfig, *requestError) {
	var body models.AnalysisRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, config.AnalyticsConfig{}, &requestError{code: CodeInvalidJSON, message: "Invalid request body: " + err.Error()}
	}

	opts, err := body.Apply(h.defaults)
	if err != nil {
		return nil, opts, &requestError{code: CodeInvalidOption, message: err.Error()}
	}
	return &body, opts, nil
}

// bindRun is bindAnalysis followed by conversion to a pipeline request
func (h *Handler) bindRun(c *fiber.Ctx) (*models.AnalysisRequest, pipeline.Request, *requestError) {
	body, opts, rerr := h.bindAnalysis(c)
	if rerr != nil {
		return nil, pipeline.Request{}, rerr
	}
	req, err := pipeline.RequestFromConfig(opts)
	if err != nil {
		return nil, req, &requestError{code: CodeInvalidOption, message: err.Error()}
	}
	return body, req, nil
}
