package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/soltixdb/eventseries/internal/pipeline"
)

var (
	anomalyColor = color.New(color.FgRed, color.Bold)
	warmUpColor  = color.New(color.FgHiBlack)
	headingColor = color.New(color.FgCyan, color.Bold)
)

func fmtCell(v float64) string {
	if s := formatFloat(v); s != "" {
		return s
	}
	return warmUpColor.Sprint("-")
}

func writeTable(w io.Writer, report *pipeline.Report) error {
	table := tablewriter.NewWriter(w)

	rollingHeader := fmt.Sprintf("%s(%d)", report.Request.Stat, report.Request.Window)
	headers := []string{"Date", "Value", rollingHeader, "Count", "Min", "Max", "Anomaly"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range rows(report) {
		minCell, maxCell := "", ""
		if r.bucketed {
			minCell, maxCell = fmtCell(r.min), fmtCell(r.max)
		}
		anomalyCell := ""
		if r.anomaly {
			anomalyCell = anomalyColor.Sprintf("z=%s", strconv.FormatFloat(r.zscore, 'f', 2, 64))
		}
		data = append(data, []string{
			r.point.Date,
			fmtCell(r.point.Value),
			fmtCell(r.rolling),
			strconv.Itoa(r.count),
			minCell,
			maxCell,
			anomalyCell,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := report.Summary
	reg := report.Regression
	lines := []string{
		headingColor.Sprint("Summary"),
		fmt.Sprintf("  count=%d mean=%s std=%s min=%s max=%s",
			s.Count, fmtCell(s.Mean), fmtCell(s.Std), fmtCell(s.Min), fmtCell(s.Max)),
		fmt.Sprintf("  trend slope=%s intercept=%s r=%s",
			fmtCell(reg.Slope), fmtCell(reg.Intercept), fmtCell(reg.R)),
		fmt.Sprintf("  anomalies=%d dropped=%d coerced=%d", len(report.Anomalies), report.Dropped, report.Coerced),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
