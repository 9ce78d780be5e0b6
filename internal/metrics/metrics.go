// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventseries_events_loaded_total",
		Help: "Total number of raw events read, labelled by source format.",
	}, []string{"format"})

	PointsNormalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventseries_points_normalized_total",
		Help: "Total number of events converted to time-series points.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventseries_events_dropped_total",
		Help: "Total number of events skipped because their kind did not match.",
	})

	ContentCoerced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventseries_content_coerced_total",
		Help: "Total number of points whose non-numeric content was coerced to 0.",
	})

	AnomaliesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventseries_anomalies_detected_total",
		Help: "Total number of rolling z-score anomalies reported.",
	})

	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventseries_pipeline_runs_total",
		Help: "Total number of analysis runs, labelled by status.",
	}, []string{"status"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventseries_pipeline_duration_ms",
		Help:    "Analysis run latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	IngestBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventseries_ingest_batches_total",
		Help: "Total number of ingest batches flushed, labelled by status.",
	}, []string{"status"})

	IngestDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventseries_ingest_dropped_events_total",
		Help: "Total number of buffered events discarded because the ingest buffer was full.",
	})

	IngestBuffered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventseries_ingest_buffered_events",
		Help: "Events currently buffered by the ingest worker.",
	})
)
