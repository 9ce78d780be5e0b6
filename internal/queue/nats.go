package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soltixdb/eventseries/internal/logging"
)

const (
	natsStreamPrefix   = "eventseries-"
	natsConsumerPrefix = "eventseries-consumer-"
	natsMaxAckPending  = 100
	natsAckWait        = 30 * time.Second
	natsMaxDeliver     = 3
)

// NATSConfig holds NATS connection options
type NATSConfig struct {
	URL      string
	Username string
	Password string
}

type natsSubscription struct {
	sub    *nats.Subscription
	cancel context.CancelFunc
}

// NATSQueue implements Queue on NATS JetStream with one file-backed stream per subject
type NATSQueue struct {
	logger        *logging.Logger
	conn          *nats.Conn
	js            nats.JetStreamContext
	subscriptions map[string]natsSubscription
	mu            sync.Mutex
}

func newNATSQueue(cfg NATSConfig, logger *logging.Logger) (*NATSQueue, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{nats.Name("eventseries")}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func newNATSQueueWithConn(conn *nats.Conn, logger *logging.Logger) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSQueue{
		logger:        logger,
		conn:          conn,
		js:            js,
		subscriptions: make(map[string]natsSubscription),
	}, nil
}

// ensureStream creates the stream capturing subject if it does not exist
func (q *NATSQueue) ensureStream(subject string) error {
	streamName := natsStreamPrefix + sanitizeName(subject)
	if _, err := q.js.StreamInfo(streamName); err == nil {
		return nil
	}

	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
	}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.ensureStream(subject); err != nil {
		return err
	}
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues every message asynchronously and waits for all acks or ctx
func (q *NATSQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))
	for _, msg := range messages {
		if err := q.ensureStream(msg.Subject); err != nil {
			q.logger.Warn("Skipped batch message", "subject", msg.Subject, "error", err)
			continue
		}
		future, err := q.js.PublishAsync(msg.Subject, msg.Data)
		if err != nil {
			q.logger.Warn("Skipped batch message", "subject", msg.Subject, "error", err)
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	successCount := 0
	for _, future := range futures {
		select {
		case <-future.Ok():
			successCount++
		case err := <-future.Err():
			q.logger.Warn("Batch message not acknowledged", "subject", future.Msg().Subject, "error", err)
		}
	}
	return successCount, nil
}

// Subscribe attaches a durable manual-ack consumer. A handler error NAKs the
// message so JetStream redelivers it, up to natsMaxDeliver attempts.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}
	if err := q.ensureStream(subject); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := q.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			q.logger.Warn("Message handler failed", "subject", subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(natsConsumerPrefix+sanitizeName(subject)),
		nats.ManualAck(),
		nats.MaxAckPending(natsMaxAckPending),
		nats.AckWait(natsAckWait),
		nats.MaxDeliver(natsMaxDeliver),
		nats.DeliverAll(),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = natsSubscription{sub: sub, cancel: cancel}
	return nil
}

// Unsubscribe removes the subscription. The durable consumer keeps its position.
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	delete(q.subscriptions, subject)
	s.cancel()

	if err := s.sub.Drain(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close drains all subscriptions and closes the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, s := range q.subscriptions {
		s.cancel()
		if err := s.sub.Drain(); err != nil {
			q.logger.Warn("Failed to drain subscription", "subject", subject, "error", err)
		}
		delete(q.subscriptions, subject)
	}

	q.conn.Close()
	return nil
}

// sanitizeName maps a subject to the characters JetStream allows in stream
// and consumer names: A-Z, a-z, 0-9, dash and underscore.
func sanitizeName(subject string) string {
	result := make([]byte, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			result[i] = c
		default:
			result[i] = '_'
		}
	}
	return string(result)
}
