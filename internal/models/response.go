package models

import (
	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/soltixdb/eventseries/internal/analytics/anomaly"
)

// HealthResponse reports liveness plus the analysis defaults the service applies
type HealthResponse struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Version   string   `json:"version"`
	Uptime    string   `json:"uptime"`
	Detectors []string `json:"detectors"`
	Defaults  string   `json:"defaults"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PointView is the JSON form of a TimeSeriesPoint
type PointView struct {
	Date      string `json:"date"`
	Value     Float  `json:"value"`
	Source    string `json:"source"`
	Encrypted bool   `json:"encrypted"`
}

// BucketView is the JSON form of a BucketPoint
type BucketView struct {
	PointView
	Count int   `json:"count"`
	Min   Float `json:"min"`
	Max   Float `json:"max"`
}

// AnomalyView is the JSON form of an Anomaly
type AnomalyView struct {
	Date   string `json:"date"`
	Value  Float  `json:"value"`
	ZScore Float  `json:"z_score"`
}

// SummaryView is the JSON form of a Summary
type SummaryView struct {
	Count int   `json:"count"`
	Mean  Float `json:"mean"`
	Std   Float `json:"std"`
	Min   Float `json:"min"`
	Max   Float `json:"max"`
	First Float `json:"first"`
	Last  Float `json:"last"`
}

// RegressionView is the JSON form of a RegressionResult
type RegressionView struct {
	Slope     Float `json:"slope"`
	Intercept Float `json:"intercept"`
	R         Float `json:"r"`
}

// NormalizeResponse represents /v1/normalize response
type NormalizeResponse struct {
	Points  []PointView `json:"points"`
	Count   int         `json:"count"`
	Dropped int         `json:"dropped"`
	Coerced int         `json:"coerced"`
}

// BucketsResponse represents /v1/buckets response
type BucketsResponse struct {
	Bucket    string       `json:"bucket"`
	Aggregate string       `json:"aggregate"`
	Buckets   []BucketView `json:"buckets"`
}

// StatisticsResponse represents /v1/statistics response
type StatisticsResponse struct {
	Summary    SummaryView    `json:"summary"`
	Regression RegressionView `json:"regression"`
}

// RollingResponse represents /v1/rolling response
type RollingResponse struct {
	Window int         `json:"window"`
	Stat   string      `json:"stat"`
	Points []PointView `json:"points"`
}

// AnomaliesResponse represents /v1/anomalies response
type AnomaliesResponse struct {
	Window    int           `json:"window"`
	Threshold float64       `json:"threshold"`
	Anomalies []AnomalyView `json:"anomalies"`
}

// CorrelationResponse represents /v1/correlation response
type CorrelationResponse struct {
	KindA  int    `json:"kind_a"`
	KindB  int    `json:"kind_b"`
	Bucket string `json:"bucket"`
	R      Float  `json:"r"`
}

// ReportView is the JSON form of a full analysis report
type ReportView struct {
	ID         string         `json:"id,omitempty"`
	Options    string         `json:"options"`
	Points     []PointView    `json:"points"`
	Buckets    []BucketView   `json:"buckets,omitempty"`
	Summary    SummaryView    `json:"summary"`
	Regression RegressionView `json:"regression"`
	Rolling    []PointView    `json:"rolling"`
	Anomalies  []AnomalyView  `json:"anomalies"`
	Dropped    int            `json:"dropped"`
	Coerced    int            `json:"coerced"`
}

// NewPointView converts a point
func NewPointView(p analytics.TimeSeriesPoint) PointView {
	return PointView{
		Date:      p.Date,
		Value:     Float(p.Value),
		Source:    string(p.Source),
		Encrypted: p.Encrypted,
	}
}

// NewPointViews converts a series, never returning nil
func NewPointViews(series []analytics.TimeSeriesPoint) []PointView {
	out := make([]PointView, len(series))
	for i, p := range series {
		out[i] = NewPointView(p)
	}
	return out
}

// NewBucketViews converts bucket points
func NewBucketViews(buckets []aggregation.BucketPoint) []BucketView {
	out := make([]BucketView, len(buckets))
	for i, b := range buckets {
		out[i] = BucketView{
			PointView: NewPointView(b.TimeSeriesPoint),
			Count:     b.Count,
			Min:       Float(b.Min),
			Max:       Float(b.Max),
		}
	}
	return out
}

// NewAnomalyViews converts anomalies
func NewAnomalyViews(anomalies []anomaly.Anomaly) []AnomalyView {
	out := make([]AnomalyView, len(anomalies))
	for i, a := range anomalies {
		out[i] = AnomalyView{
			Date:   a.Point.Date,
			Value:  Float(a.Point.Value),
			ZScore: Float(a.ZScore),
		}
	}
	return out
}

// NewSummaryView converts a summary
func NewSummaryView(s analytics.Summary) SummaryView {
	return SummaryView{
		Count: s.Count,
		Mean:  Float(s.Mean),
		Std:   Float(s.Std),
		Min:   Float(s.Min),
		Max:   Float(s.Max),
		First: Float(s.First),
		Last:  Float(s.Last),
	}
}

// NewRegressionView converts a regression result
func NewRegressionView(r analytics.RegressionResult) RegressionView {
	return RegressionView{Slope: Float(r.Slope), Intercept: Float(r.Intercept), R: Float(r.R)}
}
