// Package window implements the fixed-capacity FIFO shared by every rolling
// computation.
package window

import "github.com/gammazero/deque"

// Buffer keeps the most recent Cap() values, oldest first.
// A Buffer is owned by a single call and is not safe for concurrent use.
type Buffer[T any] struct {
	capacity int
	values   deque.Deque[T]
}

// New creates a buffer holding at most capacity values.
// A capacity below 1 is treated as 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{capacity: capacity}
}

// Push appends v and evicts the oldest value once capacity is exceeded.
func (b *Buffer[T]) Push(v T) {
	b.values.PushBack(v)
	for b.values.Len() > b.capacity {
		b.values.PopFront()
	}
}

// Len returns the number of buffered values.
func (b *Buffer[T]) Len() int {
	return b.values.Len()
}

// Cap returns the configured capacity.
func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// Full reports whether the buffer holds exactly Cap() values.
func (b *Buffer[T]) Full() bool {
	return b.values.Len() == b.capacity
}

// Values returns a fresh slice of the buffered values, oldest first.
func (b *Buffer[T]) Values() []T {
	out := make([]T, b.values.Len())
	for i := range out {
		out[i] = b.values.At(i)
	}
	return out
}
