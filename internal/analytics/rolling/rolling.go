// Package rolling computes sliding-window statistics over a point series.
//
// Every function returns a new series of the same length as its input. Indexes
// inside the warm-up period, where fewer than window values have been seen,
// carry NaN.
package rolling

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/soltixdb/eventseries/internal/analytics/window"
)

// Stat selects the statistic applied to a full window.
type Stat string

const (
	StatMean Stat = "mean"
	StatMin  Stat = "min"
	StatMax  Stat = "max"
	StatStd  Stat = "std"
)

// ErrUnknownStat is returned by ParseStat for unsupported names.
var ErrUnknownStat = errors.New("unknown rolling statistic")

// ParseStat converts a configuration string to a Stat.
func ParseStat(s string) (Stat, error) {
	switch stat := Stat(strings.ToLower(strings.TrimSpace(s))); stat {
	case StatMean, StatMin, StatMax, StatStd:
		return stat, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: mean, min, max, std)", ErrUnknownStat, s)
	}
}

// Func reduces a full window to a single value.
type Func func(values []float64) float64

// Func returns the reducer for the statistic. Unknown statistics reduce to NaN.
func (s Stat) Func() Func {
	switch s {
	case StatMean:
		return analytics.Mean
	case StatMin:
		return minOf
	case StatMax:
		return maxOf
	case StatStd:
		return analytics.Std
	default:
		return func([]float64) float64 { return math.NaN() }
	}
}

func minOf(values []float64) float64 {
	out := math.Inf(1)
	for _, v := range values {
		out = math.Min(out, v)
	}
	return out
}

func maxOf(values []float64) float64 {
	out := math.Inf(-1)
	for _, v := range values {
		out = math.Max(out, v)
	}
	return out
}

// Apply slides a window of the given size over series and reduces each full
// window with fn. A window of 1 or less returns a copy of the input.
func Apply(series []analytics.TimeSeriesPoint, size int, fn Func) []analytics.TimeSeriesPoint {
	if size <= 1 {
		return analytics.Series(series).Clone()
	}
	out := make([]analytics.TimeSeriesPoint, len(series))
	buf := window.New[float64](size)
	for i, p := range series {
		buf.Push(p.Value)
		v := math.NaN()
		if buf.Full() {
			v = fn(buf.Values())
		}
		out[i] = p.WithValue(v)
	}
	return out
}

// MovingAverage is the simple moving average over size samples.
func MovingAverage(series []analytics.TimeSeriesPoint, size int) []analytics.TimeSeriesPoint {
	return Apply(series, size, analytics.Mean)
}

// RollingStatistic applies stat to every full window.
func RollingStatistic(series []analytics.TimeSeriesPoint, size int, stat Stat) []analytics.TimeSeriesPoint {
	return Apply(series, size, stat.Func())
}
