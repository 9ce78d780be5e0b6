package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soltixdb/eventseries/internal/logging"
)

const (
	redisDefaultStream = "eventseries"
	redisDefaultGroup  = "eventseries-group"
	redisDataField     = "data"
	redisReadCount     = 100
	redisBlock         = 2 * time.Second
	redisRetryBackoff  = 500 * time.Millisecond
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // redis://host:port or a bare host:port
	Password string
	DB       int
	Stream   string // Stream key prefix (default: "eventseries")
	Group    string // Consumer group name (default: "eventseries-group")
	Consumer string // Consumer name (default: hostname)
}

func (c *RedisConfig) applyDefaults() {
	if c.Stream == "" {
		c.Stream = redisDefaultStream
	}
	if c.Group == "" {
		c.Group = redisDefaultGroup
	}
	if c.Consumer == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "consumer-1"
		}
		c.Consumer = hostname
	}
}

// RedisQueue implements Queue on Redis Streams. Each subject maps to the
// stream "<prefix>:<subject>" read through a shared consumer group.
type RedisQueue struct {
	logger        *logging.Logger
	client        *redis.Client
	config        RedisConfig
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

func newRedisQueue(cfg RedisConfig, logger *logging.Logger) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cfg.applyDefaults()
	return &RedisQueue{
		logger:        logger,
		client:        client,
		config:        cfg,
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

func (q *RedisQueue) streamName(subject string) string {
	return q.config.Stream + ":" + subject
}

func (q *RedisQueue) addArgs(subject string, data []byte) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: q.streamName(subject),
		ID:     "*",
		Values: map[string]any{redisDataField: data},
	}
}

// Publish appends a message to the subject's stream
func (q *RedisQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.client.XAdd(ctx, q.addArgs(subject, data)).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", q.streamName(subject), err)
	}
	return nil
}

// PublishBatch appends all messages in one pipeline round trip
func (q *RedisQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	pipe := q.client.Pipeline()
	for _, msg := range messages {
		pipe.XAdd(ctx, q.addArgs(msg.Subject, msg.Data))
	}

	// Exec reports the first failed command; per-command errors are counted below.
	cmds, err := pipe.Exec(ctx)
	if err != nil && ctx.Err() != nil {
		return 0, fmt.Errorf("failed to execute batch publish: %w", err)
	}

	successCount := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			successCount++
		}
	}
	return successCount, nil
}

// Subscribe creates the consumer group if needed and reads new entries in the background.
// Entries whose handler fails stay pending in the group.
func (q *RedisQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	stream := q.streamName(subject)
	ctx, cancel := context.WithCancel(context.Background())

	err := q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	q.subscriptions[subject] = cancel
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.readStream(ctx, stream, handler)
	}()
	return nil
}

func (q *RedisQueue) readStream(ctx context.Context, stream string, handler MessageHandler) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    redisReadCount,
			Block:    redisBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Warn("Redis stream read failed", "stream", stream, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(redisRetryBackoff):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				q.handleMessage(ctx, stream, msg, handler)
			}
		}
	}
}

func (q *RedisQueue) handleMessage(ctx context.Context, stream string, msg redis.XMessage, handler MessageHandler) {
	data, ok := msg.Values[redisDataField].(string)
	if !ok {
		q.logger.Warn("Dropped malformed stream entry", "stream", stream, "id", msg.ID)
		q.client.XAck(ctx, stream, q.config.Group, msg.ID)
		return
	}

	if err := handler(ctx, []byte(data)); err != nil {
		q.logger.Warn("Message handler failed", "stream", stream, "id", msg.ID, "error", err)
		return
	}
	q.client.XAck(ctx, stream, q.config.Group, msg.ID)
}

// Unsubscribe stops reading the subject's stream
func (q *RedisQueue) Unsubscribe(subject string) error {
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

// Close stops every reader and closes the client
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return q.client.Close()
}
