package models

import "github.com/soltixdb/eventseries/internal/config"

// AnalysisRequest is the body of the /v1 analysis endpoints.
// Option fields left out of the body fall back to the server's analytics config.
type AnalysisRequest struct {
	Events        []RawEvent `json:"events"`
	MetricKind    *int       `json:"metric_kind,omitempty"`
	Bucket        *string    `json:"bucket,omitempty"`
	Aggregate     *string    `json:"aggregate,omitempty"`
	Window        *int       `json:"window,omitempty"`
	Stat          *string    `json:"stat,omitempty"`
	AnomalyWindow *int       `json:"anomaly_window,omitempty"`
	Threshold     *float64   `json:"threshold,omitempty"`
}

// Apply overlays the request options on defaults and validates the result
func (r *AnalysisRequest) Apply(defaults config.AnalyticsConfig) (config.AnalyticsConfig, error) {
	cfg := defaults
	if r.MetricKind != nil {
		cfg.MetricKind = *r.MetricKind
	}
	if r.Bucket != nil {
		cfg.Bucket = *r.Bucket
	}
	if r.Aggregate != nil {
		cfg.Aggregate = *r.Aggregate
	}
	if r.Window != nil {
		cfg.Window = *r.Window
	}
	if r.Stat != nil {
		cfg.Stat = *r.Stat
	}
	if r.AnomalyWindow != nil {
		cfg.AnomalyWindow = *r.AnomalyWindow
	}
	if r.Threshold != nil {
		cfg.Threshold = *r.Threshold
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// CorrelationRequest is the body of /v1/correlation
type CorrelationRequest struct {
	Events []RawEvent `json:"events"`
	KindA  *int       `json:"kind_a"` // Required
	KindB  *int       `json:"kind_b"` // Required
	Bucket string     `json:"bucket,omitempty"` // Defaults to day
}
