package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/soltixdb/eventseries/internal/config"
)

var timeLayouts = map[string]string{
	"":        time.RFC3339,
	"RFC3339": time.RFC3339,
	"Unix":    time.UnixDate,
	"Kitchen": time.Kitchen,
}

// NewFromConfig builds the service logger. Console format wraps the output in
// zerolog's human-readable writer; json writes one object per line.
func NewFromConfig(cfg config.LoggingConfig) (*Logger, error) {
	out, err := openOutput(cfg.OutputPath)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "console" {
		layout, ok := timeLayouts[cfg.TimeFormat]
		if !ok {
			layout = cfg.TimeFormat
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: layout}
	}
	return NewWithWriter(out, ParseLevel(cfg.Level)), nil
}

// openOutput resolves stdout, stderr or a log file path. Files are appended to.
func openOutput(path string) (io.Writer, error) {
	switch path {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
