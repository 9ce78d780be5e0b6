package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. EVENTSERIES_ANALYTICS_WINDOW.
const EnvPrefix = "EVENTSERIES"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.New(), configPath)
}

// LoadWith loads configuration into v, which may already carry bound CLI flags.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/eventseries")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("analytics.metric_kind", d.Analytics.MetricKind)
	v.SetDefault("analytics.bucket", d.Analytics.Bucket)
	v.SetDefault("analytics.aggregate", d.Analytics.Aggregate)
	v.SetDefault("analytics.window", d.Analytics.Window)
	v.SetDefault("analytics.stat", d.Analytics.Stat)
	v.SetDefault("analytics.anomaly_window", d.Analytics.AnomalyWindow)
	v.SetDefault("analytics.threshold", d.Analytics.Threshold)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("ingest.enabled", d.Ingest.Enabled)
	v.SetDefault("ingest.events_subject", d.Ingest.EventsSubject)
	v.SetDefault("ingest.reports_subject", d.Ingest.ReportsSubject)
	v.SetDefault("ingest.batch_size", d.Ingest.BatchSize)
	v.SetDefault("ingest.flush_interval", d.Ingest.FlushInterval)
	v.SetDefault("ingest.max_buffered", d.Ingest.MaxBuffered)

	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.compression", d.Export.Compression)
	v.SetDefault("export.output_file", d.Export.OutputFile)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Analytics: AnalyticsConfig{
			MetricKind:    1351,
			Aggregate:     "avg",
			Window:        7,
			Stat:          "mean",
			AnomalyWindow: 7,
			Threshold:     3.0,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			BodyLimit:    8 * 1024 * 1024,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Queue: QueueConfig{
			Type:         "memory",
			URL:          "nats://localhost:4222",
			RedisStream:  "eventseries",
			RedisGroup:   "eventseries-group",
			KafkaGroupID: "eventseries-ingest",
		},
		Ingest: IngestConfig{
			Enabled:        false,
			EventsSubject:  "eventseries.events",
			ReportsSubject: "eventseries.reports",
			BatchSize:      500,
			FlushInterval:  10 * time.Second,
			MaxBuffered:    50000,
		},
		Export: ExportConfig{
			Format:      "table",
			Compression: "none",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
	}
}
