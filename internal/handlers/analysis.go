package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/models"
)

// Normalize handles POST /v1/normalize
func (h *Handler) Normalize(c *fiber.Ctx) error {
	body, opts, rerr := h.bindAnalysis(c)
	if rerr != nil {
		return h.badRequest(c, rerr)
	}

	points, dropped, coerced := h.pipeline.Normalize(body.Events, opts.MetricKind)
	return c.JSON(models.NormalizeResponse{
		Points:  models.NewPointViews(points),
		Count:   len(points),
		Dropped: dropped,
		Coerced: coerced,
	})
}

// Buckets handles POST /v1/buckets. A missing bucket means day.
func (h *Handler) Buckets(c *fiber.Ctx) error {
	body, opts, rerr := h.bindAnalysis(c)
	if rerr != nil {
		return h.badRequest(c, rerr)
	}

	group := aggregation.DefaultGroupOptions()
	if opts.Bucket != "" {
		b, err := aggregation.ParseBucket(opts.Bucket)
		if err != nil {
			return h.badRequest(c, &requestError{code: CodeInvalidOption, message: err.Error()})
		}
		group.Bucket = b
	}
	agg, err := aggregation.ParseAggregate(opts.Aggregate)
	if err != nil {
		return h.badRequest(c, &requestError{code: CodeInvalidOption, message: err.Error()})
	}
	group.Aggregate = agg

	points, _, _ := h.pipeline.Normalize(body.Events, opts.MetricKind)
	return c.JSON(models.BucketsResponse{
		Bucket:    string(group.Bucket),
		Aggregate: string(group.Aggregate),
		Buckets:   models.NewBucketViews(aggregation.GroupByBucket(points, group)),
	})
}

// Statistics handles POST /v1/statistics
func (h *Handler) Statistics(c *fiber.Ctx) error {
	body, req, rerr := h.bindRun(c)
	if rerr != nil {
		return h.badRequest(c, rerr)
	}

	report, err := h.pipeline.Run(c.UserContext(), body.Events, req)
	if err != nil {
		return err
	}
	return c.JSON(models.StatisticsResponse{
		Summary:    models.NewSummaryView(report.Summary),
		Regression: models.NewRegressionView(report.Regression),
	})
}

// Rolling handles POST /v1/rolling
func (h *Handler) Rolling(c *fiber.Ctx) error {
	body, req, rerr := h.bindRun(c)
	if rerr != nil {
		return h.badRequest(c, rerr)
	}

	report, err := h.pipeline.Run(c.UserContext(), body.Events, req)
	if err != nil {
		return err
	}
	return c.JSON(models.RollingResponse{
		Window: req.Window,
		Stat:   string(req.Stat),
		Points: models.NewPointViews(report.Rolling),
	})
}

// Anomalies handles POST /v1/anomalies
func (h *Handler) Anomalies(c *fiber.Ctx) error {
	body, req, rerr := h.bindRun(c)
	if rerr != nil {
		return h.badRequest(c, rerr)
	}

	report, err := h.pipeline.Run(c.UserContext(), body.Events, req)
	if err != nil {
		return err
	}
	return c.JSON(models.AnomaliesResponse{
		Window:    req.AnomalyWindow,
		Threshold: req.Threshold,
		Anomalies: models.NewAnomalyViews(report.Anomalies),
	})
}

// Analyze handles POST /v1/analyze and returns the full report
func (h *Handler) Analyze(c *fiber.Ctx) error {
	body, req, rerr := h.bindRun(c)
	if rerr != nil {
		return h.badRequest(c, rerr)
	}

	report, err := h.pipeline.Run(c.UserContext(), body.Events, req)
	if err != nil {
		return err
	}
	return c.JSON(report.View())
}
