// Package middleware holds the Fiber error handler and API key authentication.
package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/models"
)

// errorCodes maps HTTP statuses to the codes used in ErrorResponse
var errorCodes = map[int]string{
	fiber.StatusBadRequest:            "BAD_REQUEST",
	fiber.StatusUnauthorized:          "UNAUTHORIZED",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "BODY_TOO_LARGE",
	fiber.StatusRequestTimeout:        "TIMEOUT",
}

// ErrorHandler renders errors returned by handlers as ErrorResponse.
// Non-fiber errors become 500 and never leak their message.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", code,
				"request_id", logging.RequestID(c.UserContext()),
				"error", err)
		}

		errCode, ok := errorCodes[code]
		if !ok {
			errCode = "INTERNAL_ERROR"
			if code < fiber.StatusInternalServerError {
				errCode = "ERROR"
			}
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errCode,
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}
