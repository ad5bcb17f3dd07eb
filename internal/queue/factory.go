package queue

import (
	"fmt"

	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/utils"
)

// NewPublisher creates the run event publisher for cfg.Type. Memory is the
// default when the type is empty.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType, err := utils.ParseQueueType(cfg.Type)
	if err != nil {
		return nil, err
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSQueue(cfg.URL, cfg.Subject)

	case utils.QueueTypeRedis:
		return newRedisPublisher(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
		})

	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = []string{cfg.URL}
		}
		return newKafkaPublisher(KafkaConfig{Brokers: brokers})

	case utils.QueueTypeMemory:
		return NewMemoryQueue(), nil
	}
	return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
}
