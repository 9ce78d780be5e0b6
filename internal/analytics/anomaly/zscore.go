package anomaly

import (
	"math"

	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/soltixdb/eventseries/internal/analytics/window"
)

// RollingZScoreDetector scores each point against the window of the last
// WindowSize values (the point included) and flags |z| >= Threshold.
type RollingZScoreDetector struct{}

// Name returns the algorithm name
func (z *RollingZScoreDetector) Name() string {
	return "rolling_zscore"
}

// Detect finds anomalies using the rolling z-score method
func (z *RollingZScoreDetector) Detect(series []analytics.TimeSeriesPoint, cfg Config) []Anomaly {
	return RollingZScoreAnomalies(series, cfg.WindowSize, cfg.Threshold)
}

// RollingZScoreAnomalies returns the points whose z-score within their trailing
// window reaches threshold. Windows below 2 samples yield no anomalies, and
// windows with zero deviation are skipped.
func RollingZScoreAnomalies(series []analytics.TimeSeriesPoint, size int, threshold float64) []Anomaly {
	if size < 2 {
		return []Anomaly{}
	}
	anomalies := []Anomaly{}
	buf := window.New[float64](size)
	for i := range series {
		v := series[i].Value
		buf.Push(v)
		if !buf.Full() {
			continue
		}
		values := buf.Values()
		s := analytics.Std(values)
		if s == 0 {
			continue
		}
		score := CalculateZScore(v, analytics.Mean(values), s)
		if math.Abs(score) >= threshold {
			anomalies = append(anomalies, Anomaly{Point: &series[i], ZScore: score})
		}
	}
	return anomalies
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
