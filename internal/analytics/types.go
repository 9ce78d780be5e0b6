// Package analytics provides the canonical time-series point and the descriptive
// statistics shared by bucketing, rolling windows and anomaly detection.
package analytics

import "math"

// PointSource records where a point's date came from.
type PointSource string

const (
	SourceCreatedAt    PointSource = "created_at"
	SourceTimestampTag PointSource = "timestamp_tag"
)

// TimeSeriesPoint is a single per-day observation.
// Date is an ISO calendar day (YYYY-MM-DD); lexical order equals chronological order.
type TimeSeriesPoint struct {
	Date      string
	Value     float64
	Source    PointSource
	Encrypted bool
}

// WithValue returns a copy of the point carrying a different value.
func (p TimeSeriesPoint) WithValue(v float64) TimeSeriesPoint {
	p.Value = v
	return p
}

// Series is a sequence of points
type Series []TimeSeriesPoint

// Values extracts just the values from the series
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s)
}

// Mean calculates the mean of all values
func (s Series) Mean() float64 {
	return Mean(s.Values())
}

// Std calculates the sample standard deviation of all values
func (s Series) Std() float64 {
	return Std(s.Values())
}

// Clone returns a copy that shares no backing array with s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Summary holds whole-series descriptive statistics.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	First float64 `json:"first"`
	Last  float64 `json:"last"`
}

// Summarize computes a Summary. All fields are 0 for an empty series.
func Summarize(series []TimeSeriesPoint) Summary {
	if len(series) == 0 {
		return Summary{}
	}
	values := Series(series).Values()
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	return Summary{
		Count: len(values),
		Mean:  Mean(values),
		Std:   Std(values),
		Min:   minV,
		Max:   maxV,
		First: values[0],
		Last:  values[len(values)-1],
	}
}
