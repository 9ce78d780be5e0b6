// Package export writes analysis reports as JSON, CSV, Parquet or a terminal table.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/soltixdb/eventseries/internal/analytics"
	"github.com/soltixdb/eventseries/internal/analytics/anomaly"
	"github.com/soltixdb/eventseries/internal/compression"
	"github.com/soltixdb/eventseries/internal/pipeline"
)

// Format is an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatTable   Format = "table"
)

// ParseFormat parses a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatParquet, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (supported: json, csv, parquet, table)", s)
	}
}

// Options configures Write
type Options struct {
	Format        Format
	Compression   compression.Algorithm
	AnomaliesOnly bool // Keep only rows flagged as anomalies
}

// Write encodes report to w, compressing the stream when requested
func Write(w io.Writer, report *pipeline.Report, opts Options) error {
	if opts.AnomaliesOnly {
		report = anomalyReport(report)
	}

	cw, err := compression.NewWriter(w, opts.Compression)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatJSON:
		err = writeJSON(cw, report)
	case FormatCSV:
		err = writeCSV(cw, report)
	case FormatParquet:
		err = writeParquet(cw, report)
	case FormatTable, "":
		err = writeTable(cw, report)
	default:
		err = fmt.Errorf("unsupported output format: %q", opts.Format)
	}
	if err != nil {
		_ = cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to flush %s stream: %w", opts.Compression, err)
	}
	return nil
}

// WriteFile writes report to path. The compression suffix is appended when missing.
// It returns the path actually written.
func WriteFile(path string, report *pipeline.Report, opts Options) (string, error) {
	if ext := opts.Compression.Extension(); ext != "" && !strings.HasSuffix(path, ext) {
		path += ext
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, report, opts); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	return path, nil
}

func writeJSON(w io.Writer, report *pipeline.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report.View()); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// row is one analysed point with everything the flat formats print
type row struct {
	point    analytics.TimeSeriesPoint
	rolling  float64
	count    int
	min, max float64
	bucketed bool
	anomaly  bool
	zscore   float64
}

func rows(report *pipeline.Report) []row {
	zscores := make(map[*analytics.TimeSeriesPoint]float64, len(report.Anomalies))
	for _, a := range report.Anomalies {
		zscores[a.Point] = a.ZScore
	}
	bucketed := report.Request.Bucket != "" && len(report.Buckets) == len(report.Series)

	out := make([]row, len(report.Series))
	for i := range report.Series {
		r := row{point: report.Series[i], rolling: math.NaN(), count: 1}
		if i < len(report.Rolling) {
			r.rolling = report.Rolling[i].Value
		}
		if bucketed {
			b := report.Buckets[i]
			r.bucketed = true
			r.count, r.min, r.max = b.Count, b.Min, b.Max
		}
		if z, ok := zscores[&report.Series[i]]; ok {
			r.anomaly, r.zscore = true, z
		}
		out[i] = r
	}
	return out
}

// formatFloat renders NaN and ±Inf as an empty cell
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// anomalyReport returns a copy of report whose Series, Rolling and Buckets
// keep only the anomalous positions. Anomalies are re-pointed into the new Series.
func anomalyReport(report *pipeline.Report) *pipeline.Report {
	flagged := make(map[*analytics.TimeSeriesPoint]float64, len(report.Anomalies))
	for _, a := range report.Anomalies {
		flagged[a.Point] = a.ZScore
	}
	bucketed := len(report.Buckets) == len(report.Series)

	out := *report
	out.Series = make([]analytics.TimeSeriesPoint, 0, len(report.Anomalies))
	out.Rolling = make([]analytics.TimeSeriesPoint, 0, len(report.Anomalies))
	out.Buckets = nil
	var zscores []float64
	for i := range report.Series {
		z, ok := flagged[&report.Series[i]]
		if !ok {
			continue
		}
		out.Series = append(out.Series, report.Series[i])
		if i < len(report.Rolling) {
			out.Rolling = append(out.Rolling, report.Rolling[i])
		}
		if bucketed && report.Request.Bucket != "" {
			out.Buckets = append(out.Buckets, report.Buckets[i])
		}
		zscores = append(zscores, z)
	}

	out.Anomalies = make([]anomaly.Anomaly, len(out.Series))
	for i := range out.Series {
		out.Anomalies[i] = anomaly.Anomaly{Point: &out.Series[i], ZScore: zscores[i]}
	}
	return &out
}
