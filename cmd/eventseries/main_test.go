package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/eventseries/internal/models"
)

const jan1 = int64(1735689600) // 2025-01-01T00:00:00Z

// writeEvents writes a JSON events file with one event per day per kind
func writeEvents(t *testing.T, byKind map[int][]string) string {
	t.Helper()
	var events []models.RawEvent
	for kind, values := range byKind {
		for i, v := range values {
			events = append(events, models.RawEvent{Kind: kind, Content: v, CreatedAt: jan1 + int64(i)*86400})
		}
	}
	data, err := json.Marshal(events)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var outliers = map[int][]string{1351: {"10", "12", "11", "13", "50", "12"}}

func TestAnalyze_JSON(t *testing.T) {
	path := writeEvents(t, outliers)

	out, err := execute(t, "analyze", path, "-o", "json", "--anomaly-window", "3", "--threshold", "1.1")
	require.NoError(t, err)

	var view models.ReportView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Points, 6)
	require.Len(t, view.Anomalies, 1)
	assert.Equal(t, "2025-01-05", view.Anomalies[0].Date)
}

func TestAnalyze_Table(t *testing.T) {
	path := writeEvents(t, outliers)

	out, err := execute(t, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01-06")
	assert.Contains(t, out, "Summary")
}

func TestBuckets_DefaultsToDay(t *testing.T) {
	path := writeEvents(t, outliers)

	out, err := execute(t, "buckets", path, "-o", "json")
	require.NoError(t, err)

	var view models.ReportView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Buckets, 6)
}

func TestBuckets_WeekSumCSV(t *testing.T) {
	path := writeEvents(t, outliers)

	out, err := execute(t, "buckets", path, "--bucket", "week", "--aggregate", "sum", "-o", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2024-12-29", "46"}, records[1][:2])
	assert.Equal(t, []string{"2025-01-05", "62"}, records[2][:2])
}

func TestRolling(t *testing.T) {
	path := writeEvents(t, outliers)

	out, err := execute(t, "rolling", path, "--window", "2", "-o", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, "", records[1][2])
	assert.Equal(t, "11", records[2][2])

	_, err = execute(t, "rolling", path, "--window", "1")
	assert.Error(t, err)
}

func TestAnomalies_OnlyFlaggedRows(t *testing.T) {
	path := writeEvents(t, outliers)

	out, err := execute(t, "anomalies", path, "--anomaly-window", "3", "--threshold", "1.1", "-o", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-01-05", records[1][0])
}

func TestCorrelate(t *testing.T) {
	path := writeEvents(t, map[int][]string{
		1351: {"1", "2", "3", "5"},
		1352: {"2", "4", "6", "10"},
	})

	out, err := execute(t, "correlate", path, "--kind-a", "1351", "--kind-b", "1352", "-o", "json")
	require.NoError(t, err)

	var resp models.CorrelationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "day", resp.Bucket)
	assert.InDelta(t, 1.0, float64(resp.R), 1e-9)

	out, err = execute(t, "correlate", path, "--kind-a", "1351", "--kind-b", "1352")
	require.NoError(t, err)
	assert.Contains(t, out, "r=1.0000")
}

func TestCorrelate_RequiresKinds(t *testing.T) {
	path := writeEvents(t, outliers)

	_, err := execute(t, "correlate", path, "--kind-a", "1351")
	assert.Error(t, err)
}

func TestOutputFile_Snappy(t *testing.T) {
	path := writeEvents(t, outliers)
	target := filepath.Join(t.TempDir(), "report.json")

	out, err := execute(t, "analyze", path, "-o", "json", "--compression", "snappy", "--output-file", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	info, err := os.Stat(target + ".sz")
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestConfigFile(t *testing.T) {
	path := writeEvents(t, map[int][]string{1352: {"1", "2"}})
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analytics:\n  metric_kind: 1352\nexport:\n  format: json\n"), 0o644))

	out, err := execute(t, "analyze", path, "--config", cfgPath)
	require.NoError(t, err)

	var view models.ReportView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Points, 2)
}

func TestInvalidInputs(t *testing.T) {
	path := writeEvents(t, outliers)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "nope.json")}},
		{"unsupported extension", []string{"analyze", "events.xml"}},
		{"unknown bucket", []string{"analyze", path, "--bucket", "hour"}},
		{"unknown format", []string{"analyze", path, "-o", "xml"}},
		{"no file argument", []string{"analyze"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "eventseries CLI")
	assert.Contains(t, out, "Version: dev")
}
