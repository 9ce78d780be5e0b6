// Package pipeline runs the normalize, bucket, statistics, rolling and anomaly
// stages over a materialized batch of events.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/soltixdb/eventseries/internal/analytics/anomaly"
	"github.com/soltixdb/eventseries/internal/analytics/rolling"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/metrics"
	"github.com/soltixdb/eventseries/internal/models"
	"github.com/soltixdb/eventseries/internal/normalize"
)

// DefaultDetector is the registry entry used for Report.Anomalies.
const DefaultDetector = "rolling_zscore"

// Report is the outcome of one Run
type Report struct {
	ID      string
	Request Request

	Points  []analytics.TimeSeriesPoint // Normalized per-event points
	Buckets []aggregation.BucketPoint   // Empty unless Request.Bucket is set
	Series  []analytics.TimeSeriesPoint // Bucket points when bucketed, else Points

	Summary    analytics.Summary
	Regression analytics.RegressionResult
	Rolling    []analytics.TimeSeriesPoint
	Anomalies  []anomaly.Anomaly // Point references an element of Series

	Dropped int // Events of another kind
	Coerced int // Points whose content was not numeric
}

// View converts the report to its JSON form
func (r *Report) View() models.ReportView {
	view := models.ReportView{
		ID:         r.ID,
		Options:    r.Request.String(),
		Points:     models.NewPointViews(r.Points),
		Summary:    models.NewSummaryView(r.Summary),
		Regression: models.NewRegressionView(r.Regression),
		Rolling:    models.NewPointViews(r.Rolling),
		Anomalies:  models.NewAnomalyViews(r.Anomalies),
		Dropped:    r.Dropped,
		Coerced:    r.Coerced,
	}
	if r.Request.Bucket != "" {
		view.Buckets = models.NewBucketViews(r.Buckets)
	}
	return view
}

// Pipeline runs analyses. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	logger    *logging.Logger
	detectors *anomaly.Registry
}

// New creates a pipeline with the default anomaly detectors
func New(logger *logging.Logger) *Pipeline {
	return NewWithRegistry(logger, anomaly.NewRegistry())
}

// NewWithRegistry creates a pipeline that resolves detectors from registry
func NewWithRegistry(logger *logging.Logger, registry *anomaly.Registry) *Pipeline {
	if logger == nil {
		logger = logging.Global()
	}
	return &Pipeline{logger: logger, detectors: registry}
}

// Detectors lists the anomaly detectors the pipeline can resolve
func (p *Pipeline) Detectors() []string {
	return p.detectors.Names()
}

// Normalize converts events of the given kind and counts the events it
// dropped and the contents it coerced to 0.
func (p *Pipeline) Normalize(events []models.RawEvent, kind int) (points []analytics.TimeSeriesPoint, dropped, coerced int) {
	opts := normalize.Options{MetricKind: kind}
	points = normalize.ToTimeSeries(events, opts)
	dropped = len(events) - len(points)

	for _, ev := range events {
		if ev.Kind != kind {
			continue
		}
		if _, ok := normalize.ParseValue(ev.Content); !ok {
			coerced++
		}
	}

	metrics.PointsNormalized.Add(float64(len(points)))
	metrics.EventsDropped.Add(float64(dropped))
	metrics.ContentCoerced.Add(float64(coerced))
	return points, dropped, coerced
}

// Run analyses events according to req
func (p *Pipeline) Run(ctx context.Context, events []models.RawEvent, req Request) (*Report, error) {
	start := time.Now()
	report, err := p.run(ctx, events, req)
	metrics.PipelineDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, events []models.RawEvent, req Request) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := p.logger.WithContext(ctx)

	report := &Report{ID: uuid.NewString(), Request: req}
	report.Points, report.Dropped, report.Coerced = p.Normalize(events, req.MetricKind)
	if report.Coerced > 0 {
		logger.Debug("Non-numeric content coerced to 0", "report_id", report.ID, "coerced", report.Coerced)
	}

	report.Series = report.Points
	if req.Bucket != "" {
		report.Buckets = aggregation.GroupByBucket(report.Points, aggregation.GroupOptions{
			Bucket:    req.Bucket,
			Aggregate: req.Aggregate,
		})
		report.Series = aggregation.Points(report.Buckets)
	}

	report.Summary = analytics.Summarize(report.Series)
	report.Regression = analytics.LinearRegression(report.Series)
	report.Rolling = rolling.RollingStatistic(report.Series, req.Window, req.Stat)

	anomalies, err := p.detectors.Detect(DefaultDetector, report.Series, anomaly.Config{
		WindowSize: req.AnomalyWindow,
		Threshold:  req.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("anomaly detection: %w", err)
	}
	report.Anomalies = anomalies
	metrics.AnomaliesDetected.Add(float64(len(anomalies)))

	logger.Debug("Analysis finished",
		"report_id", report.ID,
		"options", req.String(),
		"events", len(events),
		"points", len(report.Points),
		"series", len(report.Series),
		"anomalies", len(report.Anomalies),
	)
	return report, nil
}

// Correlate returns the Pearson correlation between two metric kinds after
// averaging each into buckets. An empty bucket means day.
func (p *Pipeline) Correlate(ctx context.Context, events []models.RawEvent, kindA, kindB int, bucket aggregation.Bucket) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if bucket == "" {
		bucket = aggregation.BucketDay
	}
	opts := aggregation.GroupOptions{Bucket: bucket, Aggregate: aggregation.AggregateAvg}

	a, _, _ := p.Normalize(events, kindA)
	b, _, _ := p.Normalize(events, kindB)
	r := analytics.PearsonR(
		aggregation.Points(aggregation.GroupByBucket(a, opts)),
		aggregation.Points(aggregation.GroupByBucket(b, opts)),
	)

	p.logger.WithContext(ctx).Debug("Correlation computed",
		"kind_a", kindA, "kind_b", kindB, "bucket", bucket, "r", r)
	return r, nil
}
