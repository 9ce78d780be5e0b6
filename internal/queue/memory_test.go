package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	c := newCollector()
	require.NoError(t, q.Subscribe("eventseries.events", c.handle))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Publish(ctx, "eventseries.events", []byte(fmt.Sprintf("msg-%d", i))))
	}

	got := c.waitFor(t, 3, 2*time.Second)
	assert.Equal(t, []string{"msg-0", "msg-1", "msg-2"}, got)
}

func TestMemoryQueue_PublishCopiesData(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	data := []byte("original")
	require.NoError(t, q.Publish(context.Background(), "s", data))
	copy(data, "mutated!")

	c := newCollector()
	require.NoError(t, q.Subscribe("s", c.handle))
	assert.Equal(t, []string{"original"}, c.waitFor(t, 1, 2*time.Second))
}

func TestMemoryQueue_PublishBeforeSubscribeIsBuffered(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	require.NoError(t, q.Publish(context.Background(), "s", []byte("a")))
	assert.Equal(t, 1, q.Pending("s"))
	assert.Equal(t, 0, q.Pending("other"))
}

func TestMemoryQueue_PublishBatch(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	n, err := q.PublishBatch(context.Background(), []BatchMessage{
		{Subject: "a", Data: []byte("1")},
		{Subject: "a", Data: []byte("2")},
		{Subject: "b", Data: []byte("3")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, q.Pending("a"))
	assert.Equal(t, 1, q.Pending("b"))
}

func TestMemoryQueue_PublishCanceledContext(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Publish(ctx, "s", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueue_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	c := newCollector()
	require.NoError(t, q.Subscribe("s", func(ctx context.Context, data []byte) error {
		_ = c.handle(ctx, data)
		return errors.New("boom")
	}))

	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, "s", []byte("1")))
	require.NoError(t, q.Publish(ctx, "s", []byte("2")))

	assert.Len(t, c.waitFor(t, 2, 2*time.Second), 2)
}

func TestMemoryQueue_SubscriptionErrors(t *testing.T) {
	q := newMemoryQueue(testLogger())
	defer func() { _ = q.Close() }()

	c := newCollector()
	require.NoError(t, q.Subscribe("s", c.handle))
	assert.Error(t, q.Subscribe("s", c.handle))

	require.NoError(t, q.Unsubscribe("s"))
	assert.Error(t, q.Unsubscribe("s"))
}

func TestMemoryQueue_Close(t *testing.T) {
	q := newMemoryQueue(testLogger())

	c := newCollector()
	require.NoError(t, q.Subscribe("s", c.handle))

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	assert.Error(t, q.Publish(context.Background(), "s", []byte("x")))
	assert.Error(t, q.Subscribe("t", c.handle))
}
