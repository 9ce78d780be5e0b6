package config

import (
	"fmt"
	"net"
	"strconv"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// GetAnomalyWindow falls back to the rolling window when no anomaly window is set
func (c *AnalyticsConfig) GetAnomalyWindow() int {
	if c.AnomalyWindow > 0 {
		return c.AnomalyWindow
	}
	return c.Window
}

// String renders the analysis options for log lines
func (c AnalyticsConfig) String() string {
	bucket := c.Bucket
	if bucket == "" {
		bucket = "none"
	}
	return fmt.Sprintf("kind=%d bucket=%s aggregate=%s window=%d stat=%s anomaly_window=%d threshold=%g",
		c.MetricKind, bucket, c.Aggregate, c.Window, c.Stat, c.AnomalyWindow, c.Threshold)
}
