package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/soltixdb/eventseries/internal/logging"
)

const kafkaDefaultGroup = "eventseries-group"

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers       []string
	GroupID       string        // Consumer group ID (default: "eventseries-group")
	BatchSize     int           // Producer batch size (default: 100)
	BatchTimeout  time.Duration // Producer batch timeout (default: 10ms)
	RequiredAcks  int           // 0=none, 1=leader, -1=all (default: 1)
	MaxAttempts   int           // Producer write attempts (default: 3)
	CommitRetries int           // Consumer commit attempts (default: 3)
	RetryBackoff  time.Duration // Backoff between commit attempts (default: 100ms)
}

func (c *KafkaConfig) applyDefaults() {
	if c.GroupID == "" {
		c.GroupID = kafkaDefaultGroup
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 10 * time.Millisecond
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = int(kafka.RequireOne)
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.CommitRetries == 0 {
		c.CommitRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
}

type kafkaSubscription struct {
	reader *kafka.Reader
	cancel context.CancelFunc
}

// KafkaQueue implements Queue on Kafka with one writer per topic and one
// consumer-group reader per subscription. Subjects are used as topic names.
type KafkaQueue struct {
	logger        *logging.Logger
	config        KafkaConfig
	writers       map[string]*kafka.Writer
	subscriptions map[string]kafkaSubscription
	wg            sync.WaitGroup
	mu            sync.Mutex
}

func newKafkaQueue(cfg KafkaConfig, logger *logging.Logger) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	cfg.applyDefaults()

	return &KafkaQueue{
		logger:        logger,
		config:        cfg,
		writers:       make(map[string]*kafka.Writer),
		subscriptions: make(map[string]kafkaSubscription),
	}, nil
}

func (q *KafkaQueue) writer(topic string) *kafka.Writer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w, exists := q.writers[topic]; exists {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(q.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              q.config.BatchSize,
		BatchTimeout:           q.config.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(q.config.RequiredAcks),
		MaxAttempts:            q.config.MaxAttempts,
		AllowAutoTopicCreation: true,
	}
	q.writers[topic] = w
	return w
}

// Publish writes a message to the subject's topic
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := kafka.Message{Value: data, Time: time.Now()}
	if err := q.writer(subject).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// PublishBatch groups messages by topic and writes each group in one call
func (q *KafkaQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	now := time.Now()
	byTopic := make(map[string][]kafka.Message)
	for _, msg := range messages {
		byTopic[msg.Subject] = append(byTopic[msg.Subject], kafka.Message{Value: msg.Data, Time: now})
	}

	successCount := 0
	var lastErr error
	for topic, msgs := range byTopic {
		if err := q.writer(topic).WriteMessages(ctx, msgs...); err != nil {
			q.logger.Warn("Kafka batch write failed", "topic", topic, "messages", len(msgs), "error", err)
			lastErr = err
			continue
		}
		successCount += len(msgs)
	}

	if lastErr != nil && successCount == 0 {
		return 0, fmt.Errorf("failed to publish batch: %w", lastErr)
	}
	return successCount, nil
}

// Subscribe starts a consumer-group reader. Offsets are committed only after
// the handler succeeds.
func (q *KafkaQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.config.Brokers,
		GroupID:  q.config.GroupID,
		Topic:    subject,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = kafkaSubscription{reader: reader, cancel: cancel}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.consume(ctx, reader, handler)
	}()
	return nil
}

func (q *KafkaQueue) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn("Kafka fetch failed", "topic", reader.Config().Topic, "error", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			q.logger.Warn("Message handler failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}

		for attempt := 0; attempt < q.config.CommitRetries; attempt++ {
			if err := reader.CommitMessages(ctx, msg); err == nil {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.config.RetryBackoff):
			}
		}
	}
}

// Unsubscribe stops the reader for a topic
func (q *KafkaQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}

	s.cancel()
	delete(q.subscriptions, subject)
	return s.reader.Close()
}

// Close stops all readers and flushes all writers
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	var lastErr error
	for subject, s := range q.subscriptions {
		s.cancel()
		if err := s.reader.Close(); err != nil {
			lastErr = err
		}
		delete(q.subscriptions, subject)
	}
	for topic, w := range q.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
		delete(q.writers, topic)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return lastErr
}
