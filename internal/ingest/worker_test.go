package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/metrics"
	"github.com/soltixdb/eventseries/internal/models"
	"github.com/soltixdb/eventseries/internal/pipeline"
	"github.com/soltixdb/eventseries/internal/queue"
)

const (
	eventsSubject  = "test.events"
	reportsSubject = "test.reports"
	jan1           = int64(1735689600) // 2025-01-01T00:00:00Z
)

func testIngestConfig(batchSize int, interval time.Duration) config.IngestConfig {
	return config.IngestConfig{
		Enabled:        true,
		EventsSubject:  eventsSubject,
		ReportsSubject: reportsSubject,
		BatchSize:      batchSize,
		FlushInterval:  interval,
	}
}

func newTestWorker(t *testing.T, q queue.Queue, batchSize int, interval time.Duration) *Worker {
	t.Helper()
	logger := logging.Nop()
	w, err := NewWorker(q, pipeline.New(logger), testIngestConfig(batchSize, interval), pipeline.DefaultRequest(), logger)
	require.NoError(t, err)
	return w
}

func newMemoryQueue(t *testing.T) queue.Queue {
	t.Helper()
	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// subscribeReports forwards every decoded report to the returned channel
func subscribeReports(t *testing.T, q queue.Queue) <-chan models.ReportView {
	t.Helper()
	reports := make(chan models.ReportView, 10)
	require.NoError(t, q.Subscribe(reportsSubject, func(_ context.Context, data []byte) error {
		view, err := DecodeReport(data)
		if err != nil {
			return err
		}
		reports <- view
		return nil
	}))
	return reports
}

func weightEvents(values ...string) []models.RawEvent {
	events := make([]models.RawEvent, len(values))
	for i, v := range values {
		events[i] = models.RawEvent{Kind: 1351, Content: v, CreatedAt: jan1 + int64(i)*86400}
	}
	return events
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func droppedEvents(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.IngestDropped.Write(&m))
	return m.GetCounter().GetValue()
}

func waitReport(t *testing.T, reports <-chan models.ReportView) models.ReportView {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
		return models.ReportView{}
	}
}

func TestNewWorker_Validation(t *testing.T) {
	q := newMemoryQueue(t)
	p := pipeline.New(logging.Nop())
	req := pipeline.DefaultRequest()

	_, err := NewWorker(nil, p, testIngestConfig(10, time.Second), req, nil)
	assert.Error(t, err)

	_, err = NewWorker(q, nil, testIngestConfig(10, time.Second), req, nil)
	assert.Error(t, err)

	_, err = NewWorker(q, p, testIngestConfig(0, time.Second), req, nil)
	assert.Error(t, err)

	_, err = NewWorker(q, p, testIngestConfig(10, 0), req, nil)
	assert.Error(t, err)

	cfg := testIngestConfig(10, time.Second)
	cfg.MaxBuffered = 5
	_, err = NewWorker(q, p, cfg, req, nil)
	assert.Error(t, err)

	cfg.MaxBuffered = 0
	w, err := NewWorker(q, p, cfg, req, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, w.cfg.MaxBuffered)
}

func TestWorker_FlushEmpty(t *testing.T) {
	w := newTestWorker(t, newMemoryQueue(t), 10, time.Hour)

	report, err := w.Flush(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestWorker_HandleMessageFormats(t *testing.T) {
	w := newTestWorker(t, newMemoryQueue(t), 100, time.Hour)
	ctx := context.Background()

	require.NoError(t, w.handleMessage(ctx, encode(t, weightEvents("70")[0])))
	require.NoError(t, w.handleMessage(ctx, encode(t, weightEvents("70", "71"))))
	assert.Equal(t, 3, w.Pending())

	require.NoError(t, w.handleMessage(ctx, []byte("not json")))
	assert.Equal(t, 3, w.Pending())
}

func TestWorker_FlushPublishesReport(t *testing.T) {
	q := newMemoryQueue(t)
	reports := subscribeReports(t, q)
	w := newTestWorker(t, q, 100, time.Hour)
	ctx := context.Background()

	events := weightEvents("70", "71", "72")
	events = append(events, models.RawEvent{Kind: 1, Content: "x", CreatedAt: jan1})
	require.NoError(t, w.handleMessage(ctx, encode(t, events)))

	report, err := w.Flush(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Len(t, report.Points, 3)
	assert.Equal(t, 1, report.Dropped)
	assert.Zero(t, w.Pending())

	view := waitReport(t, reports)
	assert.Equal(t, report.ID, view.ID)
	require.Len(t, view.Points, 3)
	assert.Equal(t, "2025-01-01", view.Points[0].Date)
	assert.Equal(t, models.Float(70), view.Points[0].Value)
	assert.Equal(t, 1, view.Dropped)
}

func TestWorker_RunFlushesOnBatchSize(t *testing.T) {
	q := newMemoryQueue(t)
	reports := subscribeReports(t, q)
	w := newTestWorker(t, q, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, q.Publish(ctx, eventsSubject, encode(t, weightEvents("1", "2", "3"))))

	view := waitReport(t, reports)
	assert.Len(t, view.Points, 3)

	cancel()
	require.NoError(t, <-done)
}

func TestWorker_RunFlushesOnInterval(t *testing.T) {
	q := newMemoryQueue(t)
	reports := subscribeReports(t, q)
	w := newTestWorker(t, q, 1000, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, q.Publish(ctx, eventsSubject, encode(t, weightEvents("5"))))

	view := waitReport(t, reports)
	assert.Len(t, view.Points, 1)
}

func TestWorker_RunFlushesOnShutdown(t *testing.T) {
	q := newMemoryQueue(t)
	reports := subscribeReports(t, q)
	w := newTestWorker(t, q, 1000, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, q.Publish(context.Background(), eventsSubject, encode(t, weightEvents("1", "2"))))
	require.Eventually(t, func() bool { return w.Pending() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	view := waitReport(t, reports)
	assert.Len(t, view.Points, 2)
	assert.Zero(t, w.Pending())
}

// failingQueue rejects every publish
type failingQueue struct {
	queue.Queue
}

func (failingQueue) Publish(context.Context, string, []byte) error {
	return errors.New("broker unavailable")
}

func TestWorker_FlushFailureRequeues(t *testing.T) {
	w := newTestWorker(t, failingQueue{Queue: newMemoryQueue(t)}, 100, time.Hour)
	ctx := context.Background()

	require.NoError(t, w.handleMessage(ctx, encode(t, weightEvents("1", "2"))))

	_, err := w.Flush(ctx)
	assert.Error(t, err)
	assert.Equal(t, 2, w.Pending())

	require.NoError(t, w.handleMessage(ctx, encode(t, weightEvents("3"))))
	assert.Equal(t, 3, w.Pending())
	assert.Equal(t, "1", w.batch[0].Content)
}

func TestDecodeReport_Invalid(t *testing.T) {
	_, err := DecodeReport([]byte("plain"))
	assert.Error(t, err)
}

func TestWorker_FailedFlushesStayBounded(t *testing.T) {
	cfg := testIngestConfig(10, time.Hour)
	cfg.MaxBuffered = 30
	logger := logging.Nop()
	w, err := NewWorker(failingQueue{Queue: newMemoryQueue(t)}, pipeline.New(logger), cfg, pipeline.DefaultRequest(), logger)
	require.NoError(t, err)
	ctx := context.Background()
	droppedBefore := droppedEvents(t)

	for round := 0; round < 50; round++ {
		values := make([]string, 10)
		for i := range values {
			values[i] = fmt.Sprint(round*10 + i)
		}
		require.NoError(t, w.handleMessage(ctx, encode(t, weightEvents(values...))))

		_, err := w.Flush(ctx)
		require.Error(t, err)
		require.LessOrEqual(t, w.Pending(), 30)
	}

	assert.Equal(t, 30, w.Pending())
	assert.Equal(t, "470", w.batch[0].Content)
	assert.Equal(t, "499", w.batch[29].Content)
	assert.Equal(t, 470.0, droppedEvents(t)-droppedBefore)
}

func TestWorker_ArrivalsPastLimitDropOldest(t *testing.T) {
	cfg := testIngestConfig(2, time.Hour)
	cfg.MaxBuffered = 3
	logger := logging.Nop()
	w, err := NewWorker(newMemoryQueue(t), pipeline.New(logger), cfg, pipeline.DefaultRequest(), logger)
	require.NoError(t, err)

	require.NoError(t, w.handleMessage(context.Background(), encode(t, weightEvents("1", "2", "3", "4", "5"))))

	require.Equal(t, 3, w.Pending())
	assert.Equal(t, "3", w.batch[0].Content)
}
