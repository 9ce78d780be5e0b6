package aggregation

import (
	"math"
	"testing"

	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(date string, value float64) analytics.TimeSeriesPoint {
	return analytics.TimeSeriesPoint{Date: date, Value: value, Source: analytics.SourceCreatedAt}
}

func TestGroupByBucket_WeekAvg(t *testing.T) {
	// 2025-01-01 is a Wednesday, 2025-01-05 a Sunday.
	series := []analytics.TimeSeriesPoint{
		point("2025-01-01", 10),
		point("2025-01-02", 20),
		point("2025-01-05", 30),
	}

	buckets := GroupByBucket(series, GroupOptions{Bucket: BucketWeek, Aggregate: AggregateAvg})

	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-12-29", buckets[0].Date)
	assert.Equal(t, 15.0, buckets[0].Value)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 10.0, buckets[0].Min)
	assert.Equal(t, 20.0, buckets[0].Max)

	assert.Equal(t, "2025-01-05", buckets[1].Date)
	assert.Equal(t, 30.0, buckets[1].Value)
	assert.Equal(t, 1, buckets[1].Count)
}

func TestGroupByBucket_MonthCount(t *testing.T) {
	series := []analytics.TimeSeriesPoint{
		point("2025-02-01", 1),
		point("2025-01-31", 2),
		point("2025-01-01", 3),
	}

	buckets := GroupByBucket(series, GroupOptions{Bucket: BucketMonth, Aggregate: AggregateCount})

	require.Len(t, buckets, 2)
	assert.Equal(t, "2025-01", buckets[0].Date)
	assert.Equal(t, 2.0, buckets[0].Value)
	assert.Equal(t, "2025-02", buckets[1].Date)
	assert.Equal(t, 1.0, buckets[1].Value)
}

func TestGroupByBucket_Aggregates(t *testing.T) {
	series := []analytics.TimeSeriesPoint{
		point("2025-01-01", 4),
		point("2025-01-01", 1),
		point("2025-01-01", 7),
	}

	tests := []struct {
		agg      Aggregate
		expected float64
	}{
		{AggregateAvg, 4},
		{AggregateSum, 12},
		{AggregateMin, 1},
		{AggregateMax, 7},
		{AggregateCount, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			buckets := GroupByBucket(series, GroupOptions{Bucket: BucketDay, Aggregate: tt.agg})
			require.Len(t, buckets, 1)
			assert.Equal(t, tt.expected, buckets[0].Value)
			assert.Equal(t, 3, buckets[0].Count)
			assert.Equal(t, 1.0, buckets[0].Min)
			assert.Equal(t, 7.0, buckets[0].Max)
		})
	}
}

func TestGroupByBucket_SortedByKey(t *testing.T) {
	series := []analytics.TimeSeriesPoint{
		point("2025-03-02", 1),
		point("2024-12-31", 2),
		point("2025-01-15", 3),
	}

	buckets := GroupByBucket(series, DefaultGroupOptions())

	require.Len(t, buckets, 3)
	var keys []string
	for _, b := range buckets {
		keys = append(keys, b.Date)
	}
	assert.Equal(t, []string{"2024-12-31", "2025-01-15", "2025-03-02"}, keys)
}

func TestGroupByBucket_FirstSeenMetadata(t *testing.T) {
	series := []analytics.TimeSeriesPoint{
		{Date: "2025-01-01", Value: 1, Source: analytics.SourceTimestampTag, Encrypted: true},
		{Date: "2025-01-02", Value: 2, Source: analytics.SourceCreatedAt, Encrypted: false},
	}

	buckets := GroupByBucket(series, GroupOptions{Bucket: BucketMonth})

	require.Len(t, buckets, 1)
	assert.Equal(t, analytics.SourceTimestampTag, buckets[0].Source)
	assert.True(t, buckets[0].Encrypted)
	assert.Equal(t, 1.5, buckets[0].Value)
}

func TestGroupByBucket_NaNPropagates(t *testing.T) {
	series := []analytics.TimeSeriesPoint{
		point("2025-01-01", 1),
		point("2025-01-01", math.NaN()),
	}

	buckets := GroupByBucket(series, DefaultGroupOptions())

	require.Len(t, buckets, 1)
	assert.True(t, math.IsNaN(buckets[0].Value))
	assert.True(t, math.IsNaN(buckets[0].Min))
	assert.True(t, math.IsNaN(buckets[0].Max))
}

func TestGroupByBucket_UnparsableDateKeptAsKey(t *testing.T) {
	series := []analytics.TimeSeriesPoint{point("garbage", 5)}

	buckets := GroupByBucket(series, GroupOptions{Bucket: BucketWeek})

	require.Len(t, buckets, 1)
	assert.Equal(t, "garbage", buckets[0].Date)
}

func TestGroupByBucket_Empty(t *testing.T) {
	buckets := GroupByBucket(nil, DefaultGroupOptions())
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestGroupByBucket_DoesNotMutateInput(t *testing.T) {
	series := []analytics.TimeSeriesPoint{point("2025-01-01", 1), point("2025-01-03", 2)}
	before := analytics.Series(series).Clone()

	GroupByBucket(series, GroupOptions{Bucket: BucketWeek, Aggregate: AggregateSum})

	assert.Equal(t, []analytics.TimeSeriesPoint(before), series)
}
