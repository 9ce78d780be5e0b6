package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/models"
)

// MinAPIKeyLength is the minimum accepted API key length
const MinAPIKeyLength = 32

// ValidateAPIKey reports whether key is long enough and not blank
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// APIKeyAuth rejects requests without a configured API key. Keys shorter than
// MinAPIKeyLength are ignored with a warning. A disabled config passes everything.
func APIKeyAuth(logger *logging.Logger, cfg config.AuthConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if !ValidateAPIKey(key) {
			logger.Warn("Ignoring weak API key",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key))
			continue
		}
		keys = append(keys, []byte(key))
	}
	if len(keys) == 0 {
		logger.Error("No valid API keys configured, every request will be rejected",
			"total_keys", len(cfg.APIKeys))
	}

	return func(c *fiber.Ctx) error {
		apiKey := requestAPIKey(c)
		if apiKey == "" {
			return unauthorized(c, "API key is required. Provide it via X-API-Key or Authorization header.")
		}

		if !matchesAny(keys, []byte(apiKey)) {
			logging.WarnCtx(c.UserContext(), "Invalid API key",
				"path", c.Path(),
				"ip", c.IP(),
				"key_prefix", maskAPIKey(apiKey))
			return unauthorized(c, "Invalid API key.")
		}
		return c.Next()
	}
}

// requestAPIKey reads X-API-Key, then Authorization with or without a Bearer prefix
func requestAPIKey(c *fiber.Ctx) string {
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

func matchesAny(keys [][]byte, candidate []byte) bool {
	found := false
	for _, key := range keys {
		if subtle.ConstantTimeCompare(key, candidate) == 1 {
			found = true
		}
	}
	return found
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}

// maskAPIKey keeps the first 4 characters for logs
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
