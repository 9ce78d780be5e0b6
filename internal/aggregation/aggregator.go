package aggregation

import "math"

// AggregatedField accumulates the values that fall into one bucket.
// Min and Max use math.Min/math.Max, so a NaN value poisons both.
type AggregatedField struct {
	Count int     // Number of folded values
	Sum   float64 // Sum of values
	Min   float64 // Minimum
	Max   float64 // Maximum
}

// NewAggregatedField creates a new aggregated field from a single value
func NewAggregatedField(value float64) *AggregatedField {
	return &AggregatedField{
		Count: 1,
		Sum:   value,
		Min:   value,
		Max:   value,
	}
}

// AddValue folds a single value into the aggregation
func (af *AggregatedField) AddValue(value float64) {
	af.Count++
	af.Sum += value
	af.Min = math.Min(af.Min, value)
	af.Max = math.Max(af.Max, value)
}

// Avg returns Sum/Count, or 0 for an empty field
func (af *AggregatedField) Avg() float64 {
	if af.Count == 0 {
		return 0
	}
	return af.Sum / float64(af.Count)
}
