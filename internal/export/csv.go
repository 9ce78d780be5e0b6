package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/soltixdb/eventseries/internal/pipeline"
)

var csvHeader = []string{"date", "value", "rolling", "count", "min", "max", "anomaly_z"}

func writeCSV(w io.Writer, report *pipeline.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range rows(report) {
		record := []string{
			r.point.Date,
			formatFloat(r.point.Value),
			formatFloat(r.rolling),
			strconv.Itoa(r.count),
			"",
			"",
			"",
		}
		if r.bucketed {
			record[4], record[5] = formatFloat(r.min), formatFloat(r.max)
		}
		if r.anomaly {
			record[6] = formatFloat(r.zscore)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
