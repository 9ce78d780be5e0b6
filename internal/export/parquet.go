package export

import (
	"fmt"
	"io"
	"math"

	"github.com/parquet-go/parquet-go"
	"github.com/soltixdb/eventseries/internal/pipeline"
)

// PointRecord is one analysed point in the Parquet export.
// Non-finite values are stored as nulls.
type PointRecord struct {
	Date      string   `parquet:"date,snappy"`
	Value     *float64 `parquet:"value,optional,snappy"`
	Rolling   *float64 `parquet:"rolling,optional,snappy"`
	Count     int32    `parquet:"count,snappy"`
	Min       *float64 `parquet:"min,optional,snappy"`
	Max       *float64 `parquet:"max,optional,snappy"`
	Source    string   `parquet:"source,snappy,dict"`
	Encrypted bool     `parquet:"encrypted"`
	Anomaly   bool     `parquet:"anomaly"`
	ZScore    *float64 `parquet:"z_score,optional,snappy"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// PointRecords flattens the analysed series of a report
func PointRecords(report *pipeline.Report) []PointRecord {
	src := rows(report)
	out := make([]PointRecord, len(src))
	for i, r := range src {
		rec := PointRecord{
			Date:      r.point.Date,
			Value:     finite(r.point.Value),
			Rolling:   finite(r.rolling),
			Count:     int32(r.count),
			Source:    string(r.point.Source),
			Encrypted: r.point.Encrypted,
			Anomaly:   r.anomaly,
		}
		if r.bucketed {
			rec.Min, rec.Max = finite(r.min), finite(r.max)
		}
		if r.anomaly {
			rec.ZScore = finite(r.zscore)
		}
		out[i] = rec
	}
	return out
}

func writeParquet(w io.Writer, report *pipeline.Report) error {
	writer := parquet.NewGenericWriter[PointRecord](w)
	if _, err := writer.Write(PointRecords(report)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
