package aggregation

import (
	"errors"
	"fmt"
	"strings"
)

// Aggregate selects the value reported for a bucket
type Aggregate string

const (
	AggregateAvg   Aggregate = "avg"
	AggregateSum   Aggregate = "sum"
	AggregateMin   Aggregate = "min"
	AggregateMax   Aggregate = "max"
	AggregateCount Aggregate = "count"
)

// ErrUnknownAggregate is returned by ParseAggregate for unsupported names.
var ErrUnknownAggregate = errors.New("unknown aggregate")

// ParseAggregate parses an aggregate name case-insensitively. "mean" is an alias of avg.
func ParseAggregate(s string) (Aggregate, error) {
	switch a := Aggregate(strings.ToLower(strings.TrimSpace(s))); a {
	case AggregateAvg, AggregateSum, AggregateMin, AggregateMax, AggregateCount:
		return a, nil
	case "mean":
		return AggregateAvg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAggregate, s)
	}
}

// Apply extracts the aggregate value from a folded field. Unknown aggregates fall back to avg.
func (a Aggregate) Apply(af *AggregatedField) float64 {
	switch a {
	case AggregateSum:
		return af.Sum
	case AggregateMin:
		return af.Min
	case AggregateMax:
		return af.Max
	case AggregateCount:
		return float64(af.Count)
	default:
		return af.Avg()
	}
}
