package loader

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/soltixdb/eventseries/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteDriver = "sqlite"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteLoader reads events from a table with the columns
// id, kind, content, tags (JSON text) and created_at.
type SQLiteLoader struct {
	driverName string
}

// NewSQLiteLoader creates a loader backed by modernc.org/sqlite
func NewSQLiteLoader() *SQLiteLoader {
	return &SQLiteLoader{driverName: sqliteDriver}
}

// Load reads every row of table ordered by created_at, then insertion order.
func (l *SQLiteLoader) Load(ctx context.Context, path, table string) ([]models.RawEvent, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	// sql.Open would create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at %q: %w", path, err)
	}

	db, err := sql.Open(l.driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at %q: %w", path, err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	query := fmt.Sprintf(`SELECT id, kind, content, tags, created_at FROM %s ORDER BY created_at, rowid`, table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]models.RawEvent, 0)
	for rows.Next() {
		var (
			id      sql.NullString
			content sql.NullString
			tags    sql.NullString
			ev      models.RawEvent
		)
		if err := rows.Scan(&id, &ev.Kind, &content, &tags, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.ID = id.String
		ev.Content = content.String
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &ev.Tags); err != nil {
				return nil, fmt.Errorf("failed to decode tags of event %q: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}
