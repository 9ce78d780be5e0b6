package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soltixdb/eventseries/internal/aggregation"
	"github.com/soltixdb/eventseries/internal/compression"
	"github.com/soltixdb/eventseries/internal/export"
	"github.com/soltixdb/eventseries/internal/loader"
	"github.com/soltixdb/eventseries/internal/models"
	"github.com/soltixdb/eventseries/internal/pipeline"
)

func newAnalyzeCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run the full analysis and print every point with its rolling value and anomaly score.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(cmd, args[0], nil, false)
		},
	}
}

func newBucketsCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets <file>",
		Short: "Aggregate points into calendar buckets (day unless --bucket is set).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(cmd, args[0], func(req *pipeline.Request) {
				if req.Bucket == "" {
					req.Bucket = aggregation.BucketDay
				}
			}, false)
		},
	}
}

func newRollingCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rolling <file>",
		Short: "Print the rolling statistic over --window points.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Analytics.Window < 2 {
				return fmt.Errorf("--window must be at least 2 for a rolling statistic")
			}
			return app.report(cmd, args[0], nil, false)
		},
	}
}

func newAnomaliesCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies <file>",
		Short: "Print only points whose rolling z-score reaches --threshold.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(cmd, args[0], nil, true)
		},
	}
}

func newCorrelateCmd(app *cli) *cobra.Command {
	var kindA, kindB int

	cmd := &cobra.Command{
		Use:   "correlate <file> --kind-a <kind> --kind-b <kind>",
		Short: "Pearson correlation between two metric kinds over shared buckets.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.correlate(cmd, args[0], kindA, kindB)
		},
	}
	cmd.Flags().IntVar(&kindA, "kind-a", 0, "First event kind")
	cmd.Flags().IntVar(&kindB, "kind-b", 0, "Second event kind")
	_ = cmd.MarkFlagRequired("kind-a")
	_ = cmd.MarkFlagRequired("kind-b")
	return cmd
}

// report loads path, runs the pipeline and writes the report in the configured format
func (a *cli) report(cmd *cobra.Command, path string, adjust func(*pipeline.Request), anomaliesOnly bool) error {
	req, err := pipeline.RequestFromConfig(a.cfg.Analytics)
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(&req)
	}

	opts, err := a.exportOptions()
	if err != nil {
		return err
	}
	opts.AnomaliesOnly = anomaliesOnly

	events, err := loader.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	report, err := pipeline.New(a.logger).Run(cmd.Context(), events, req)
	if err != nil {
		return err
	}

	if a.cfg.Export.OutputFile == "" {
		return export.Write(cmd.OutOrStdout(), report, opts)
	}

	written, err := export.WriteFile(a.cfg.Export.OutputFile, report, opts)
	if err != nil {
		return err
	}
	a.logger.Info("Report written", "path", written, "format", opts.Format, "points", len(report.Series))
	return nil
}

func (a *cli) exportOptions() (export.Options, error) {
	format, err := export.ParseFormat(a.cfg.Export.Format)
	if err != nil {
		return export.Options{}, err
	}
	algo, err := compression.ParseAlgorithm(a.cfg.Export.Compression)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{Format: format, Compression: algo}, nil
}

func (a *cli) correlate(cmd *cobra.Command, path string, kindA, kindB int) error {
	if kindA < 0 || kindB < 0 {
		return fmt.Errorf("--kind-a and --kind-b must not be negative")
	}

	bucket := aggregation.BucketDay
	if a.cfg.Analytics.Bucket != "" {
		b, err := aggregation.ParseBucket(a.cfg.Analytics.Bucket)
		if err != nil {
			return err
		}
		bucket = b
	}

	events, err := loader.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	r, err := pipeline.New(a.logger).Correlate(cmd.Context(), events, kindA, kindB, bucket)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.cfg.Export.Format == string(export.FormatJSON) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.CorrelationResponse{KindA: kindA, KindB: kindB, Bucket: string(bucket), R: models.Float(r)})
	}
	_, err = fmt.Fprintf(out, "kind %d vs kind %d (%s buckets): r=%.4f\n", kindA, kindB, bucket, r)
	return err
}
