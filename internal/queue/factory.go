package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/logging"
)

// NewQueue creates a Queue for the configured transport. An empty type means memory.
func NewQueue(cfg config.QueueConfig, logger *logging.Logger) (Queue, error) {
	if logger == nil {
		logger = logging.Global()
	}
	queueType := Type(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = TypeMemory
	}
	logger = logger.With("queue", string(queueType))

	switch queueType {
	case TypeNATS:
		return newNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
		}, logger)

	case TypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		}, logger)

	case TypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return newKafkaQueue(KafkaConfig{
			Brokers: brokers,
			GroupID: cfg.KafkaGroupID,
		}, logger)

	case TypeMemory:
		return newMemoryQueue(logger), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
