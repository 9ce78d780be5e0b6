// Package loader reads raw metric events from files.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/metrics"
	"github.com/soltixdb/eventseries/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported event file format")

// Format identifies an event file encoding
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatSQLite Format = "sqlite"
)

// DefaultTable is the SQLite table read by LoadFile.
const DefaultTable = "events"

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile reads all events from path. Events without an ID are assigned a random UUID.
func LoadFile(ctx context.Context, path string) ([]models.RawEvent, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var events []models.RawEvent
	switch format {
	case FormatSQLite:
		events, err = NewSQLiteLoader().Load(ctx, path, DefaultTable)
	default:
		events, err = loadStream(path, format)
	}
	if err != nil {
		return nil, err
	}

	AssignIDs(events)
	metrics.EventsLoaded.WithLabelValues(string(format)).Add(float64(len(events)))
	logging.FromContext(ctx).Debug("Loaded events", "path", path, "format", format, "count", len(events))
	return events, nil
}

func loadStream(path string, format Format) ([]models.RawEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case FormatCSV:
		return LoadCSV(f, DefaultCSVOptions())
	case FormatTSV:
		return LoadCSV(f, CSVOptions{Delimiter: '\t'})
	default:
		return LoadJSON(f)
	}
}

// AssignIDs fills in missing event IDs in place
func AssignIDs(events []models.RawEvent) {
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
	}
}
