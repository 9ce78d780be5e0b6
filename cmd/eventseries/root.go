package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/logging"
)

// Linker flags set at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli carries state shared by every subcommand of one invocation
type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *logging.Logger
}

// flagKeys maps persistent flag names to config keys
var flagKeys = map[string]string{
	"kind":           "analytics.metric_kind",
	"bucket":         "analytics.bucket",
	"aggregate":      "analytics.aggregate",
	"window":         "analytics.window",
	"stat":           "analytics.stat",
	"anomaly-window": "analytics.anomaly_window",
	"threshold":      "analytics.threshold",
	"output":         "export.format",
	"output-file":    "export.output_file",
	"compression":    "export.compression",
	"log-level":      "logging.level",
}

func newRootCmd() *cobra.Command {
	app := &cli{v: viper.New()}
	d := config.DefaultConfig()

	root := &cobra.Command{
		Use:           "eventseries",
		Short:         "Normalize, bucket and analyze timestamped metric events.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file")
	flags.Int("kind", d.Analytics.MetricKind, "Event kind to analyze")
	flags.String("bucket", d.Analytics.Bucket, "Calendar bucket: day, week or month (empty keeps raw points)")
	flags.String("aggregate", d.Analytics.Aggregate, "Bucket aggregate: avg, sum, min, max or count")
	flags.Int("window", d.Analytics.Window, "Rolling window length in points")
	flags.String("stat", d.Analytics.Stat, "Rolling statistic: mean, min, max or std")
	flags.Int("anomaly-window", d.Analytics.AnomalyWindow, "Z-score window length in points")
	flags.Float64("threshold", d.Analytics.Threshold, "Minimum |z| flagged as anomaly")
	flags.StringP("output", "o", d.Export.Format, "Output format: table, json, csv or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.String("compression", d.Export.Compression, "Output compression: none or snappy")
	flags.String("log-level", d.Logging.Level, "Log level: debug, info, warn or error")

	for name, key := range flagKeys {
		if err := app.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	root.AddCommand(
		newAnalyzeCmd(app),
		newBucketsCmd(app),
		newRollingCmd(app),
		newAnomaliesCmd(app),
		newCorrelateCmd(app),
		newVersionCmd(),
	)
	return root
}

// init resolves configuration from defaults, file, environment and flags
func (a *cli) init(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadWith(a.v, configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewCLI(cfg.Logging.Level)
	logging.SetGlobal(a.logger)
	a.logger.Debug("Configuration loaded", "analytics", cfg.Analytics.String(), "output", cfg.Export.Format)
	return nil
}
