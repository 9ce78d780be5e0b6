package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/soltixdb/eventseries/internal/logging"
)

const memoryChannelSize = 10000

// MemoryQueue implements Queue with buffered channels. Messages are delivered
// at most once; a failing handler only logs.
type MemoryQueue struct {
	logger        *logging.Logger
	channels      map[string]chan []byte
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
	closed        bool
}

func newMemoryQueue(logger *logging.Logger) *MemoryQueue {
	return &MemoryQueue{
		logger:        logger,
		channels:      make(map[string]chan []byte),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// channel returns the channel for subject, creating it on first use. Caller holds mu.
func (q *MemoryQueue) channel(subject string) chan []byte {
	if ch, exists := q.channels[subject]; exists {
		return ch
	}
	ch := make(chan []byte, memoryChannelSize)
	q.channels[subject] = ch
	return ch
}

// Publish copies data onto the subject's channel without blocking
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("memory queue closed")
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case q.channel(subject) <- dataCopy:
		return nil
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// PublishBatch publishes messages one by one, skipping failures
func (q *MemoryQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	successCount := 0
	for _, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			q.logger.Warn("Dropped batch message", "subject", msg.Subject, "error", err)
			continue
		}
		successCount++
	}
	return successCount, nil
}

// Subscribe consumes the subject's channel in a background goroutine
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("memory queue closed")
	}
	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ch := q.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				if err := handler(ctx, data); err != nil {
					q.logger.Warn("Message handler failed", "subject", subject, "error", err)
				}
			}
		}
	}()

	return nil
}

// Unsubscribe stops delivering messages for subject
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close cancels all subscriptions and waits for their goroutines to exit
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Pending returns the number of undelivered messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, exists := q.channels[subject]; exists {
		return len(ch)
	}
	return 0
}
