package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with key/value convenience methods.
// Fields are passed as alternating key, value pairs.
type Logger struct {
	zl     zerolog.Logger
	fields map[string]interface{}
}

var global = NewDevelopment()

// NewProduction creates a JSON logger on stdout at info level
func NewProduction() *Logger {
	return NewWithWriter(os.Stdout, zerolog.InfoLevel)
}

// NewDevelopment creates a pretty console logger at debug level
func NewDevelopment() *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
}

// NewCLI creates a console logger on stderr so stdout stays free for command output
func NewCLI(level string) *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, ParseLevel(level))
}

// NewWithWriter creates a logger with custom writer
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{zl: zl, fields: make(map[string]interface{})}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), fields: make(map[string]interface{})}
}

// ParseLevel parses a level name, defaulting to info
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

// SetGlobal sets the global logger instance
func SetGlobal(logger *Logger) {
	global = logger
}

// Global returns the global logger instance
func Global() *Logger {
	return global
}

func (l *Logger) write(e *zerolog.Event, msg string, fields []interface{}) {
	for k, v := range l.fields {
		e.Interface(k, v)
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if err, isErr := fields[i+1].(error); isErr {
			e.Str(key, err.Error())
			continue
		}
		e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) { l.write(l.zl.Debug(), msg, fields) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) { l.write(l.zl.Info(), msg, fields) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) { l.write(l.zl.Warn(), msg, fields) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) { l.write(l.zl.Error(), msg, fields) }

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...interface{}) { l.write(l.zl.Fatal(), msg, fields) }

// With creates a child logger with additional fields
func (l *Logger) With(fields ...interface{}) *Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		newFields[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			newFields[key] = fields[i+1]
		}
	}
	return &Logger{zl: l.zl, fields: newFields}
}

// WithContext returns a logger carrying the request and batch IDs found in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
