// Package queue carries raw events into the ingest worker and analysis
// reports out of it over NATS JetStream, Redis Streams, Kafka or memory.
package queue

import "context"

// Type names a queue transport
type Type string

const (
	TypeMemory Type = "memory"
	TypeNATS   Type = "nats"
	TypeRedis  Type = "redis"
	TypeKafka  Type = "kafka"
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes multiple messages and returns how many were accepted
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	// Close closes the connection
	Close() error
}

// BatchMessage represents a message for batch publishing
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe delivers messages on subject to handler until Unsubscribe or Close.
	// A handler error leaves the message unacknowledged where the transport supports redelivery.
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages. ctx is canceled when the subscription ends.
type MessageHandler func(ctx context.Context, data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
