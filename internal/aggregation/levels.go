package aggregation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bucket is the calendar granularity points are grouped by
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ErrUnknownBucket is returned by ParseBucket for names outside day/week/month.
var ErrUnknownBucket = errors.New("unknown bucket")

const dayLayout = "2006-01-02"

// ParseBucket parses a bucket name case-insensitively.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(strings.ToLower(strings.TrimSpace(s))); b {
	case BucketDay, BucketWeek, BucketMonth:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
	}
}

// BucketKey maps a calendar-day string to the key of the bucket containing it.
// Dates that cannot be parsed are returned unchanged.
func BucketKey(date string, bucket Bucket) string {
	switch bucket {
	case BucketWeek:
		t, ok := parseDay(date)
		if !ok {
			return date
		}
		return TruncateToWeek(t).Format(dayLayout)
	case BucketMonth:
		y, m, _, ok := splitDay(date)
		if !ok {
			return date
		}
		return fmt.Sprintf("%04d-%02d", y, m)
	default:
		return date
	}
}

// TruncateToWeek returns midnight of the Sunday starting t's week
func TruncateToWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// parseDay builds a UTC midnight from year/month/day numbers. Out-of-range
// components roll over the way time.Date normalizes them.
func parseDay(date string) (time.Time, bool) {
	y, m, d, ok := splitDay(date)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

func splitDay(date string) (y, m, d int, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) < 3 {
		return 0, 0, 0, false
	}
	nums := make([]int, 3)
	for i := range nums {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}
