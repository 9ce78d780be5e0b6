// Package aggregation groups per-day points into calendar buckets.
package aggregation

import (
	"sort"

	"github.com/soltixdb/eventseries/internal/analytics"
)

// GroupOptions configures GroupByBucket. Zero fields mean day and avg.
type GroupOptions struct {
	Bucket    Bucket
	Aggregate Aggregate
}

// DefaultGroupOptions returns day buckets averaged.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{Bucket: BucketDay, Aggregate: AggregateAvg}
}

// BucketPoint is one calendar bucket. Date holds the bucket key and Value the
// selected aggregate; Count, Min and Max are always populated.
type BucketPoint struct {
	analytics.TimeSeriesPoint
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type bucketState struct {
	first analytics.TimeSeriesPoint
	field *AggregatedField
}

// GroupByBucket folds series into one BucketPoint per distinct bucket key,
// sorted ascending by key. Source and Encrypted come from the first point of each bucket.
func GroupByBucket(series []analytics.TimeSeriesPoint, opts GroupOptions) []BucketPoint {
	if opts.Bucket == "" {
		opts.Bucket = BucketDay
	}
	if opts.Aggregate == "" {
		opts.Aggregate = AggregateAvg
	}

	buckets := make(map[string]*bucketState)
	for _, p := range series {
		key := BucketKey(p.Date, opts.Bucket)
		if st, ok := buckets[key]; ok {
			st.field.AddValue(p.Value)
			continue
		}
		buckets[key] = &bucketState{first: p, field: NewAggregatedField(p.Value)}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]BucketPoint, 0, len(keys))
	for _, k := range keys {
		st := buckets[k]
		out = append(out, BucketPoint{
			TimeSeriesPoint: analytics.TimeSeriesPoint{
				Date:      k,
				Value:     opts.Aggregate.Apply(st.field),
				Source:    st.first.Source,
				Encrypted: st.first.Encrypted,
			},
			Count: st.field.Count,
			Min:   st.field.Min,
			Max:   st.field.Max,
		})
	}
	return out
}

// Points strips bucket metadata so buckets can feed rolling windows and statistics.
func Points(buckets []BucketPoint) []analytics.TimeSeriesPoint {
	out := make([]analytics.TimeSeriesPoint, len(buckets))
	for i, b := range buckets {
		out[i] = b.TimeSeriesPoint
	}
	return out
}
