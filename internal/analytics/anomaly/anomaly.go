// Package anomaly flags points that deviate from their rolling window.
package anomaly

import (
	"fmt"
	"sort"

	"github.com/soltixdb/eventseries/internal/analytics"
)

// DefaultThreshold is the |z| at or above which a point is flagged.
const DefaultThreshold = 3.0

// Anomaly is a flagged point and its score. Point references the element of the
// input series that was flagged; it is not a copy and must be treated as read-only.
type Anomaly struct {
	Point  *analytics.TimeSeriesPoint
	ZScore float64
}

// Config holds configuration for anomaly detection
type Config struct {
	// WindowSize is the number of trailing samples, including the current one
	WindowSize int

	// Threshold in standard deviations
	Threshold float64
}

// DefaultConfig returns default detector configuration
func DefaultConfig() Config {
	return Config{
		WindowSize: 7,
		Threshold:  DefaultThreshold,
	}
}

// Detector is implemented by every anomaly detection algorithm.
type Detector interface {
	// Name returns the algorithm name
	Name() string

	// Detect finds anomalies in the given series
	Detect(series []analytics.TimeSeriesPoint, cfg Config) []Anomaly
}

// Registry holds available detectors. It is an explicit value so callers
// decide its lifetime; NewRegistry pre-registers the built-in detectors.
type Registry struct {
	detectors map[string]Detector
}

// NewRegistry creates a registry with the built-in detectors.
func NewRegistry() *Registry {
	r := &Registry{detectors: make(map[string]Detector)}
	r.Register(&RollingZScoreDetector{})
	return r
}

// Register adds or replaces a detector under its name.
func (r *Registry) Register(d Detector) {
	r.detectors[d.Name()] = d
}

// Get returns a detector by name
func (r *Registry) Get(name string) (Detector, error) {
	if d, ok := r.detectors[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// Names returns the registered detector names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect runs the named detector.
func (r *Registry) Detect(name string, series []analytics.TimeSeriesPoint, cfg Config) ([]Anomaly, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return d.Detect(series, cfg), nil
}
