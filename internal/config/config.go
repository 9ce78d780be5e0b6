package config

import (
	"fmt"
	"time"

	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/analytics/rolling"
)

// Config represents the complete application configuration
type Config struct {
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Export    ExportConfig    `mapstructure:"export"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnalyticsConfig holds the default analysis options
type AnalyticsConfig struct {
	MetricKind    int     `mapstructure:"metric_kind"`    // Event kind converted to points (default: 1351)
	Bucket        string  `mapstructure:"bucket"`         // day, week, month; empty keeps raw points
	Aggregate     string  `mapstructure:"aggregate"`      // avg, sum, min, max, count
	Window        int     `mapstructure:"window"`         // Rolling window length in points
	Stat          string  `mapstructure:"stat"`           // mean, min, max, std
	AnomalyWindow int     `mapstructure:"anomaly_window"` // Z-score window length in points
	Threshold     float64 `mapstructure:"threshold"`      // Minimum |z| flagged as anomaly
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	BodyLimit    int           `mapstructure:"body_limit"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig represents API key authentication for the /v1 routes
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"api_keys"` // Accepted via X-API-Key or Authorization: Bearer
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "eventseries")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "eventseries-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// IngestConfig configures the broker ingest worker
type IngestConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	EventsSubject  string        `mapstructure:"events_subject"`  // Subject raw events arrive on
	ReportsSubject string        `mapstructure:"reports_subject"` // Subject compressed reports are published to
	BatchSize      int           `mapstructure:"batch_size"`      // Flush once this many events are buffered
	FlushInterval  time.Duration `mapstructure:"flush_interval"`  // Flush at least this often when events are buffered
	MaxBuffered    int           `mapstructure:"max_buffered"`    // Oldest events are dropped past this many buffered events
}

// ExportConfig configures CLI output
type ExportConfig struct {
	Format      string `mapstructure:"format"`      // json, csv, parquet, table
	Compression string `mapstructure:"compression"` // none, snappy
	OutputFile  string `mapstructure:"output_file"` // Empty writes to stdout
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates analytics configuration
func (c *AnalyticsConfig) Validate() error {
	if c.MetricKind < 0 {
		return fmt.Errorf("analytics.metric_kind cannot be negative")
	}

	if c.Bucket != "" {
		if _, err := aggregation.ParseBucket(c.Bucket); err != nil {
			return fmt.Errorf("analytics.bucket: %w", err)
		}
	}

	if _, err := aggregation.ParseAggregate(c.Aggregate); err != nil {
		return fmt.Errorf("analytics.aggregate: %w", err)
	}

	if _, err := rolling.ParseStat(c.Stat); err != nil {
		return fmt.Errorf("analytics.stat: %w", err)
	}

	if c.Window < 0 || c.AnomalyWindow < 0 {
		return fmt.Errorf("analytics window sizes cannot be negative")
	}

	if c.Threshold < 0 {
		return fmt.Errorf("analytics.threshold cannot be negative")
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "memory", "nats", "redis", "kafka":
	default:
		return fmt.Errorf("queue.type must be one of: memory, nats, redis, kafka")
	}

	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 && c.URL == "" {
		return fmt.Errorf("queue.kafka_brokers is required for kafka")
	}

	return nil
}

// Validate validates ingest configuration
func (c *IngestConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.EventsSubject == "" || c.ReportsSubject == "" {
		return fmt.Errorf("ingest.events_subject and ingest.reports_subject are required")
	}

	if c.EventsSubject == c.ReportsSubject {
		return fmt.Errorf("ingest.events_subject and ingest.reports_subject cannot be the same")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be at least 1")
	}

	if c.FlushInterval <= 0 {
		return fmt.Errorf("ingest.flush_interval must be positive")
	}

	if c.MaxBuffered < c.BatchSize {
		return fmt.Errorf("ingest.max_buffered must be at least ingest.batch_size")
	}

	return nil
}

// Validate validates export configuration
func (c *ExportConfig) Validate() error {
	switch c.Format {
	case "json", "csv", "parquet", "table":
	default:
		return fmt.Errorf("export.format must be one of: json, csv, parquet, table")
	}

	switch c.Compression {
	case "", "none", "snappy":
	default:
		return fmt.Errorf("export.compression must be 'none' or 'snappy'")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
