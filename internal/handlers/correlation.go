package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/models"
)

// Correlation handles POST /v1/correlation
func (h *Handler) Correlation(c *fiber.Ctx) error {
	var body models.CorrelationRequest
	if err := c.BodyParser(&body); err != nil {
		return h.badRequest(c, &requestError{code: CodeInvalidJSON, message: "Invalid request body: " + err.Error()})
	}

	if body.KindA == nil || body.KindB == nil {
		return h.badRequest(c, &requestError{code: CodeInvalidOption, message: "kind_a and kind_b are required"})
	}
	kindA, kindB := *body.KindA, *body.KindB
	if kindA < 0 || kindB < 0 {
		return h.badRequest(c, &requestError{code: CodeInvalidOption, message: "kind_a and kind_b must not be negative"})
	}

	bucket := aggregation.BucketDay
	if body.Bucket != "" {
		b, err := aggregation.ParseBucket(body.Bucket)
		if err != nil {
			return h.badRequest(c, &requestError{code: CodeInvalidOption, message: err.Error()})
		}
		bucket = b
	}

	r, err := h.pipeline.Correlate(c.UserContext(), body.Events, kindA, kindB, bucket)
	if err != nil {
		return err
	}
	return c.JSON(models.CorrelationResponse{
		KindA:  kindA,
		KindB:  kindB,
		Bucket: string(bucket),
		R:      models.Float(r),
	})
}
