package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soltixdb/eventseries/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.Nop()
}

// collector records every payload delivered to its handler
type collector struct {
	mu       sync.Mutex
	messages []string
	notify   chan struct{}
}

func newCollector() *collector {
	return &collector{notify: make(chan struct{}, 1000)}
}

func (c *collector) handle(_ context.Context, data []byte) error {
	c.mu.Lock()
	c.messages = append(c.messages, string(data))
	c.mu.Unlock()
	c.notify <- struct{}{}
	return nil
}

func (c *collector) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}

// waitFor blocks until n messages arrived or timeout elapses
func (c *collector) waitFor(t *testing.T, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.After(timeout)
	for len(c.received()) < n {
		select {
		case <-c.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d messages, got %d", n, len(c.received()))
		}
	}
	return c.received()
}
