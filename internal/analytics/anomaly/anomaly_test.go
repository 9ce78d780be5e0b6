package anomaly

import (
	"fmt"
	"math"
	"testing"

	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSeries(values []float64) []analytics.TimeSeriesPoint {
	points := make([]analytics.TimeSeriesPoint, len(values))
	for i, v := range values {
		points[i] = analytics.TimeSeriesPoint{
			Date:   fmt.Sprintf("2025-01-%02d", i+1),
			Value:  v,
			Source: analytics.SourceCreatedAt,
		}
	}
	return points
}

var outlierSeries = []float64{10, 12, 11, 13, 50, 12}

func TestRollingZScoreAnomalies_FlagsOutlier(t *testing.T) {
	series := createTestSeries(outlierSeries)

	// With sample deviation the newest value in a window of 3 can score at
	// most 2/sqrt(3), so the threshold has to sit below that bound.
	anomalies := RollingZScoreAnomalies(series, 3, 1.1)

	require.Len(t, anomalies, 1)
	assert.Equal(t, 50.0, anomalies[0].Point.Value)
	assert.Equal(t, "2025-01-05", anomalies[0].Point.Date)
	assert.InDelta(t, 1.1535, anomalies[0].ZScore, 1e-3)
}

func TestRollingZScoreAnomalies_PointIsReference(t *testing.T) {
	series := createTestSeries(outlierSeries)

	anomalies := RollingZScoreAnomalies(series, 3, 1.1)

	require.Len(t, anomalies, 1)
	assert.Same(t, &series[4], anomalies[0].Point)
}

func TestRollingZScoreAnomalies_NoAnomalies(t *testing.T) {
	series := createTestSeries(outlierSeries)

	tests := []struct {
		name      string
		window    int
		threshold float64
	}{
		{"threshold above window bound", 3, 2},
		{"high threshold", 3, 10},
		{"window of one", 1, 0.5},
		{"window of zero", 0, 0.5},
		{"negative window", -4, 0.5},
		{"window longer than series", 10, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anomalies := RollingZScoreAnomalies(series, tt.window, tt.threshold)
			assert.NotNil(t, anomalies)
			assert.Empty(t, anomalies)
		})
	}
}

func TestRollingZScoreAnomalies_SkipsFlatWindows(t *testing.T) {
	series := createTestSeries([]float64{5, 5, 5, 5, 5})

	assert.Empty(t, RollingZScoreAnomalies(series, 3, 0))
}

func TestRollingZScoreAnomalies_NegativeScore(t *testing.T) {
	series := createTestSeries([]float64{50, 50, 51, 49, 50, 51, 0})

	anomalies := RollingZScoreAnomalies(series, 7, 2)

	require.Len(t, anomalies, 1)
	assert.Equal(t, 0.0, anomalies[0].Point.Value)
	assert.Less(t, anomalies[0].ZScore, 0.0)
}

func TestRollingZScoreAnomalies_NaNNeverFlags(t *testing.T) {
	series := createTestSeries([]float64{1, math.NaN(), 100})

	assert.Empty(t, RollingZScoreAnomalies(series, 2, 0.1))
}

func TestRollingZScoreAnomalies_Idempotent(t *testing.T) {
	series := createTestSeries(outlierSeries)

	first := RollingZScoreAnomalies(series, 3, 1.1)
	second := RollingZScoreAnomalies(series, 3, 1.1)

	assert.Equal(t, first, second)
}

func TestCalculateZScore(t *testing.T) {
	assert.Equal(t, 2.0, CalculateZScore(14, 10, 2))
	assert.Equal(t, 0.0, CalculateZScore(14, 10, 0))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"rolling_zscore"}, r.Names())

	d, err := r.Get("rolling_zscore")
	require.NoError(t, err)
	assert.Equal(t, "rolling_zscore", d.Name())

	_, err = r.Get("iqr")
	assert.Error(t, err)

	anomalies, err := r.Detect("rolling_zscore", createTestSeries(outlierSeries), Config{WindowSize: 3, Threshold: 1.1})
	require.NoError(t, err)
	assert.Len(t, anomalies, 1)

	_, err = r.Detect("missing", nil, DefaultConfig())
	assert.Error(t, err)
}

func TestRegistry_IsolatedInstances(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.Register(stubDetector{})

	assert.Contains(t, a.Names(), "stub")
	assert.NotContains(t, b.Names(), "stub")
}

type stubDetector struct{}

func (stubDetector) Name() string { return "stub" }

func (stubDetector) Detect([]analytics.TimeSeriesPoint, Config) []Anomaly { return nil }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultThreshold, cfg.Threshold)
	assert.Equal(t, 3.0, cfg.Threshold)
	assert.Equal(t, 7, cfg.WindowSize)
}
