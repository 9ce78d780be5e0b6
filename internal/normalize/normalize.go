// Package normalize converts raw metric events into canonical per-day points.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/soltixdb/eventseries/internal/models"
)

const (
	// DefaultMetricKind is the NIP-101h weight event kind.
	DefaultMetricKind = 1351

	TagTimestamp      = "timestamp"
	TagEncryptionAlgo = "encryption_algo"

	isoLayout = "2006-01-02T15:04:05.000Z"
)

// Options configures ToTimeSeries.
type Options struct {
	// MetricKind selects the events to convert. It is matched exactly, so the
	// zero value selects kind-0 events; use DefaultOptions for weight events.
	MetricKind int
}

// DefaultOptions returns the default normalization options.
func DefaultOptions() Options {
	return Options{MetricKind: DefaultMetricKind}
}

// ToTimeSeries returns one point per event of the configured kind, in input
// order. Other events are dropped. It never fails: unparsable content becomes 0.
func ToTimeSeries(events []models.RawEvent, opts Options) []analytics.TimeSeriesPoint {
	out := make([]analytics.TimeSeriesPoint, 0, len(events))
	for _, ev := range events {
		if ev.Kind != opts.MetricKind {
			continue
		}
		out = append(out, ToPoint(ev))
	}
	return out
}

// ToPoint converts a single event regardless of its kind.
func ToPoint(ev models.RawEvent) analytics.TimeSeriesPoint {
	iso, source := isoDate(ev)
	value, _ := ParseValue(ev.Content)
	return analytics.TimeSeriesPoint{
		Date:      calendarDay(iso),
		Value:     value,
		Source:    source,
		Encrypted: ev.HasTag(TagEncryptionAlgo),
	}
}

// isoDate picks the timestamp tag value when present, else created_at in UTC.
// A timestamp tag without a value counts as absent.
func isoDate(ev models.RawEvent) (string, analytics.PointSource) {
	if tag, ok := ev.FindTag(TagTimestamp); ok {
		if v, ok := tag.Value(); ok {
			return v, analytics.SourceTimestampTag
		}
	}
	return FormatCreatedAt(ev.CreatedAt), analytics.SourceCreatedAt
}

// FormatCreatedAt renders unix seconds as a UTC ISO 8601 timestamp with milliseconds.
func FormatCreatedAt(sec int64) string {
	return time.UnixMilli(sec * 1000).UTC().Format(isoLayout)
}

func calendarDay(iso string) string {
	if len(iso) <= 10 {
		return iso
	}
	return iso[:10]
}

// ParseValue parses event content as a number. ok is false when the content is
// not numeric, in which case the returned value is the 0 fallback.
//
// Accepted forms: surrounding whitespace, decimal and exponent notation,
// Infinity, and 0x/0o/0b integers. Blank content is 0 and counts as numeric.
func ParseValue(content string) (float64, bool) {
	s := strings.TrimSpace(content)
	if s == "" {
		return 0, true
	}
	if strings.ContainsRune(s, '_') {
		return 0, false
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if v, ok := parsePrefixedInt(s); ok {
		return v, true
	}
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(lower, "inf") || strings.HasPrefix(lower, "nan") || strings.HasPrefix(lower, "0x") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if numErr, isNum := err.(*strconv.NumError); isNum && numErr.Err == strconv.ErrRange {
			return v, true
		}
		return 0, false
	}
	return v, true
}

func parsePrefixedInt(s string) (float64, bool) {
	if len(s) < 3 || s[0] != '0' {
		return 0, false
	}
	var base int
	switch s[1] {
	case 'x', 'X':
		base = 16
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	default:
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], base, 64)
	if err != nil {
		return 0, false
	}
	return float64(v), true
}
