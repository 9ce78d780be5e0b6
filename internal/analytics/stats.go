package analytics

import (
	"math"
	"strconv"
)

// RegressionResult is the outcome of an index-based least squares fit.
type RegressionResult struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
}

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Std returns the sample standard deviation (n-1 divisor), or 0 for fewer than 2 values.
func Std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// alignByDate inner-joins two series on Date. a is indexed by date (the last
// duplicate wins) and b is walked in order, so pairs follow b's ordering.
func alignByDate(a, b []TimeSeriesPoint) (xs, ys []float64) {
	byDate := make(map[string]float64, len(a))
	for _, p := range a {
		byDate[p.Date] = p.Value
	}
	for _, p := range b {
		if v, ok := byDate[p.Date]; ok {
			xs = append(xs, v)
			ys = append(ys, p.Value)
		}
	}
	return xs, ys
}

// PearsonR returns the Pearson correlation of a and b over their shared dates.
// It returns 0 when fewer than 2 dates overlap or either side has no variance.
func PearsonR(a, b []TimeSeriesPoint) float64 {
	xs, ys := alignByDate(a, b)
	n := len(xs)
	if n < 2 {
		return 0
	}
	mx, my := Mean(xs), Mean(ys)
	sx, sy := Std(xs), Std(ys)
	if sx == 0 || sy == 0 {
		return 0
	}
	num := 0.0
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
	}
	return num / (float64(n-1) * sx * sy)
}

// LinearRegression fits value against position with ordinary least squares.
// NaN values are skipped and x is the position among the remaining points.
// R is computed with PearsonR over index-keyed series.
func LinearRegression(series []TimeSeriesPoint) RegressionResult {
	var xs, ys []float64
	for _, p := range series {
		if math.IsNaN(p.Value) {
			continue
		}
		xs = append(xs, float64(len(xs)))
		ys = append(ys, p.Value)
	}
	if len(xs) < 2 {
		intercept := 0.0
		if len(ys) == 1 {
			intercept = ys[0]
		}
		return RegressionResult{Intercept: intercept}
	}

	mx, my := Mean(xs), Mean(ys)
	var num, den float64
	for i := range xs {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	slope := 0.0
	if den != 0 {
		slope = num / den
	}

	xSeries := make([]TimeSeriesPoint, len(xs))
	ySeries := make([]TimeSeriesPoint, len(ys))
	for i := range xs {
		key := strconv.Itoa(i)
		xSeries[i] = TimeSeriesPoint{Date: key, Value: xs[i]}
		ySeries[i] = TimeSeriesPoint{Date: key, Value: ys[i]}
	}

	return RegressionResult{
		Slope:     slope,
		Intercept: my - slope*mx,
		R:         PearsonR(xSeries, ySeries),
	}
}
