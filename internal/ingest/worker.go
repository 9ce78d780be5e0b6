// Package ingest batches raw events arriving over a queue and publishes an
// analysis report for every flushed batch.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/eventseries/internal/compression"
	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/loader"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/metrics"
	"github.com/soltixdb/eventseries/internal/models"
	"github.com/soltixdb/eventseries/internal/pipeline"
	"github.com/soltixdb/eventseries/internal/queue"
)

const (
	// shutdownFlushTimeout bounds the final flush after Run's context is canceled
	shutdownFlushTimeout = 10 * time.Second

	// defaultBufferBatches sizes MaxBuffered when it is left unset
	defaultBufferBatches = 10
)

// Worker consumes RawEvent messages and flushes them through the pipeline.
// Reports are published as snappy-compressed JSON.
type Worker struct {
	logger     *logging.Logger
	queue      queue.Queue
	pipeline   *pipeline.Pipeline
	compressor compression.Compressor
	cfg        config.IngestConfig
	request    pipeline.Request

	mu      sync.Mutex
	batch   []models.RawEvent
	flushCh chan struct{}
	flushMu sync.Mutex
}

// NewWorker creates a worker. Nothing is consumed until Run is called.
func NewWorker(q queue.Queue, p *pipeline.Pipeline, cfg config.IngestConfig, req pipeline.Request, logger *logging.Logger) (*Worker, error) {
	if q == nil {
		return nil, fmt.Errorf("ingest worker requires a queue")
	}
	if p == nil {
		return nil, fmt.Errorf("ingest worker requires a pipeline")
	}
	if cfg.BatchSize <= 0 || cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("ingest batch_size and flush_interval must be positive")
	}
	if cfg.MaxBuffered == 0 {
		cfg.MaxBuffered = defaultBufferBatches * cfg.BatchSize
	}
	if cfg.MaxBuffered < cfg.BatchSize {
		return nil, fmt.Errorf("ingest max_buffered (%d) must be at least batch_size (%d)", cfg.MaxBuffered, cfg.BatchSize)
	}
	if logger == nil {
		logger = logging.Global()
	}

	compressor, err := compression.GetCompressor(compression.Snappy)
	if err != nil {
		return nil, err
	}

	return &Worker{
		logger:     logger.With("component", "ingest"),
		queue:      q,
		pipeline:   p,
		compressor: compressor,
		cfg:        cfg,
		request:    req,
		flushCh:    make(chan struct{}, 1),
	}, nil
}

// Run subscribes to the events subject and flushes on BatchSize or FlushInterval
// until ctx is canceled. Buffered events are flushed once more before it returns.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.queue.Subscribe(w.cfg.EventsSubject, w.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.cfg.EventsSubject, err)
	}

	w.logger.Info("Ingest worker started",
		"events_subject", w.cfg.EventsSubject,
		"reports_subject", w.cfg.ReportsSubject,
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"max_buffered", w.cfg.MaxBuffered)

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.shutdown()
		case <-ticker.C:
			w.flushLogged(ctx)
		case <-w.flushCh:
			w.flushLogged(ctx)
		}
	}
}

func (w *Worker) shutdown() error {
	if err := w.queue.Unsubscribe(w.cfg.EventsSubject); err != nil {
		w.logger.Warn("Failed to unsubscribe", "subject", w.cfg.EventsSubject, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	defer cancel()
	_, err := w.Flush(ctx)

	w.logger.Info("Ingest worker stopped", "pending", w.Pending())
	return err
}

func (w *Worker) flushLogged(ctx context.Context) {
	if _, err := w.Flush(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("Ingest flush failed", "error", err)
	}
}

// handleMessage decodes one message (object, array or NDJSON) into the batch.
// Undecodable messages are logged and acknowledged so they are not redelivered.
func (w *Worker) handleMessage(_ context.Context, data []byte) error {
	events, err := loader.LoadJSON(bytes.NewReader(data))
	if err != nil {
		w.logger.Warn("Dropped undecodable message", "bytes", len(data), "error", err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}
	loader.AssignIDs(events)
	metrics.EventsLoaded.WithLabelValues("queue").Add(float64(len(events)))

	if size := w.buffer(events, false); size >= w.cfg.BatchSize {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Pending returns the number of buffered events
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batch)
}

// Flush runs the pipeline over the buffered events and publishes the report.
// It returns nil and no error when nothing is buffered. On failure the events
// are put back in front of anything buffered meanwhile, subject to MaxBuffered.
func (w *Worker) Flush(ctx context.Context) (*pipeline.Report, error) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	events := w.batch
	w.batch = nil
	w.mu.Unlock()
	metrics.IngestBuffered.Set(0)

	if len(events) == 0 {
		return nil, nil
	}

	ctx = logging.WithBatchID(ctx, uuid.NewString())
	report, err := w.publish(ctx, events)
	if err != nil {
		w.buffer(events, true)
		metrics.IngestBatches.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.IngestBatches.WithLabelValues("success").Inc()
	logging.InfoCtx(ctx, "Ingest batch flushed",
		"events", len(events),
		"report_id", report.ID,
		"anomalies", len(report.Anomalies))
	return report, nil
}

func (w *Worker) publish(ctx context.Context, events []models.RawEvent) (*pipeline.Report, error) {
	report, err := w.pipeline.Run(ctx, events, w.request)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(report.View())
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	compressed, err := w.compressor.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to compress report: %w", err)
	}

	if err := w.queue.Publish(ctx, w.cfg.ReportsSubject, compressed); err != nil {
		return nil, err
	}
	return report, nil
}

// buffer adds events behind the batch, or in front of it when requeueing a
// failed flush, and drops the oldest events past MaxBuffered. It returns the
// buffered count.
func (w *Worker) buffer(events []models.RawEvent, front bool) int {
	w.mu.Lock()
	if front {
		w.batch = append(events, w.batch...)
	} else {
		w.batch = append(w.batch, events...)
	}
	dropped := len(w.batch) - w.cfg.MaxBuffered
	if dropped > 0 {
		w.batch = append([]models.RawEvent(nil), w.batch[dropped:]...)
	}
	size := len(w.batch)
	w.mu.Unlock()

	metrics.IngestBuffered.Set(float64(size))
	if dropped > 0 {
		metrics.IngestDropped.Add(float64(dropped))
		w.logger.Warn("Ingest buffer full, dropped oldest events",
			"dropped", dropped, "max_buffered", w.cfg.MaxBuffered)
	}
	return size
}

// DecodeReport reverses the encoding Flush publishes reports with
func DecodeReport(data []byte) (models.ReportView, error) {
	var view models.ReportView

	compressor, err := compression.GetCompressor(compression.Snappy)
	if err != nil {
		return view, err
	}
	payload, err := compressor.Decompress(data)
	if err != nil {
		return view, fmt.Errorf("failed to decompress report: %w", err)
	}
	if err := json.Unmarshal(payload, &view); err != nil {
		return view, fmt.Errorf("failed to decode report: %w", err)
	}
	return view, nil
}
