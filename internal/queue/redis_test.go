package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)

	q, err := newRedisQueue(RedisConfig{URL: "redis://" + mr.Addr(), Consumer: "test-consumer"}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestRedisConfig_Defaults(t *testing.T) {
	cfg := RedisConfig{}
	cfg.applyDefaults()

	assert.Equal(t, "eventseries", cfg.Stream)
	assert.Equal(t, "eventseries-group", cfg.Group)
	assert.NotEmpty(t, cfg.Consumer)
}

func TestNewRedisQueue_BareAddress(t *testing.T) {
	mr := miniredis.RunT(t)

	q, err := newRedisQueue(RedisConfig{URL: mr.Addr()}, testLogger())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	assert.Equal(t, "eventseries:events", q.streamName("events"))
}

func TestNewRedisQueue_Unreachable(t *testing.T) {
	_, err := newRedisQueue(RedisConfig{URL: "redis://127.0.0.1:1"}, testLogger())
	assert.Error(t, err)
}

func TestRedisQueue_Publish(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, "events", []byte("payload")))

	entries, err := q.client.XRange(ctx, "eventseries:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "payload", entries[0].Values["data"])
}

func TestRedisQueue_PublishBatch(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	n, err := q.PublishBatch(ctx, []BatchMessage{
		{Subject: "a", Data: []byte("1")},
		{Subject: "a", Data: []byte("2")},
		{Subject: "b", Data: []byte("3")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	a, err := q.client.XRange(ctx, "eventseries:a", "-", "+").Result()
	require.NoError(t, err)
	assert.Len(t, a, 2)
}

func TestRedisQueue_PublishSubscribe(t *testing.T) {
	q := newTestRedisQueue(t)

	c := newCollector()
	require.NoError(t, q.Subscribe("events", c.handle))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Publish(ctx, "events", []byte(fmt.Sprintf("e%d", i))))
	}

	assert.Equal(t, []string{"e0", "e1", "e2"}, c.waitFor(t, 3, 5*time.Second))
}

func TestRedisQueue_SubscribeTwiceSharesGroup(t *testing.T) {
	q := newTestRedisQueue(t)

	c := newCollector()
	require.NoError(t, q.Subscribe("events", c.handle))
	assert.Error(t, q.Subscribe("events", c.handle))

	require.NoError(t, q.Unsubscribe("events"))
	require.NoError(t, q.Subscribe("events", c.handle), "existing group must be reused")
}

func TestRedisQueue_FailedMessageStaysPending(t *testing.T) {
	q := newTestRedisQueue(t)

	handled := make(chan struct{}, 1)
	require.NoError(t, q.Subscribe("events", func(context.Context, []byte) error {
		handled <- struct{}{}
		return errors.New("boom")
	}))
	require.NoError(t, q.Publish(context.Background(), "events", []byte("x")))

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}

	pending, err := q.client.XPending(context.Background(), "eventseries:events", "eventseries-group").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestRedisQueue_UnsubscribeUnknown(t *testing.T) {
	q := newTestRedisQueue(t)
	assert.Error(t, q.Unsubscribe("missing"))
}
