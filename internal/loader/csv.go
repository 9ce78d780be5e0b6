package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/soltixdb/eventseries/internal/models"
	"github.com/soltixdb/eventseries/internal/normalize"
)

// CSVOptions configures LoadCSV
type CSVOptions struct {
	Delimiter rune
}

// DefaultCSVOptions returns comma-separated options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ','}
}

// Recognized CSV header names. Other columns are ignored.
const (
	colID        = "id"
	colKind      = "kind"
	colCreatedAt = "created_at"
	colTimestamp = "timestamp"
	colUnit      = "unit"
	colValue     = "value"
	colEncrypted = "encrypted"
)

// LoadCSV reads events from a CSV document with a header row. The value column
// becomes the event content and unit, timestamp and encrypted become tags.
// Non-numeric kind or created_at cells read as 0. Only an exact "true" marks a
// row as encrypted.
func LoadCSV(r io.Reader, opts CSVOptions) ([]models.RawEvent, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	events := make([]models.RawEvent, 0)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return events, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		ev := models.RawEvent{
			ID:        cell(colID),
			Kind:      int(integerCell(cell(colKind))),
			Content:   cell(colValue),
			CreatedAt: integerCell(cell(colCreatedAt)),
			Tags:      []models.Tag{},
		}
		if unit := cell(colUnit); unit != "" {
			ev.Tags = append(ev.Tags, models.Tag{"unit", unit})
		}
		if ts := cell(colTimestamp); ts != "" {
			ev.Tags = append(ev.Tags, models.Tag{normalize.TagTimestamp, ts})
		}
		if cell(colEncrypted) == "true" {
			ev.Tags = append(ev.Tags, models.Tag{normalize.TagEncryptionAlgo, "nip44"})
		}
		events = append(events, ev)
	}
}

// integerCell reads a numeric cell, truncating fractions. Values outside the
// int64 range read as 0.
func integerCell(s string) int64 {
	v, ok := normalize.ParseValue(s)
	if !ok || v < math.MinInt64 || v >= math.MaxInt64 {
		return 0
	}
	return int64(v)
}
