package pipeline

import (
	"fmt"

	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/analytics/anomaly"
	"github.com/soltixdb/eventseries/internal/analytics/rolling"
	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/normalize"
)

// Request holds the options of one analysis run
type Request struct {
	MetricKind    int
	Bucket        aggregation.Bucket // Empty analyses the raw per-event points
	Aggregate     aggregation.Aggregate
	Window        int
	Stat          rolling.Stat
	AnomalyWindow int
	Threshold     float64
}

// DefaultRequest mirrors config.DefaultConfig().Analytics
func DefaultRequest() Request {
	d := anomaly.DefaultConfig()
	return Request{
		MetricKind:    normalize.DefaultMetricKind,
		Aggregate:     aggregation.AggregateAvg,
		Window:        d.WindowSize,
		Stat:          rolling.StatMean,
		AnomalyWindow: d.WindowSize,
		Threshold:     d.Threshold,
	}
}

// RequestFromConfig parses the string options of cfg
func RequestFromConfig(cfg config.AnalyticsConfig) (Request, error) {
	req := Request{
		MetricKind:    cfg.MetricKind,
		Window:        cfg.Window,
		AnomalyWindow: cfg.GetAnomalyWindow(),
		Threshold:     cfg.Threshold,
	}

	if cfg.Bucket != "" {
		b, err := aggregation.ParseBucket(cfg.Bucket)
		if err != nil {
			return req, err
		}
		req.Bucket = b
	}

	agg, err := aggregation.ParseAggregate(cfg.Aggregate)
	if err != nil {
		return req, err
	}
	req.Aggregate = agg

	stat, err := rolling.ParseStat(cfg.Stat)
	if err != nil {
		return req, err
	}
	req.Stat = stat

	return req, nil
}

// String renders the request for logs and report headers
func (r Request) String() string {
	bucket := string(r.Bucket)
	if bucket == "" {
		bucket = "none"
	}
	return fmt.Sprintf("kind=%d bucket=%s aggregate=%s window=%d stat=%s anomaly_window=%d threshold=%g",
		r.MetricKind, bucket, r.Aggregate, r.Window, r.Stat, r.AnomalyWindow, r.Threshold)
}
