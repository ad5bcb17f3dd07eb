package subscriber

import (
	"fmt"

	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/queue"
	"github.com/seriesdash/seriesdash/internal/utils"
)

// NewSubscriber creates a Subscriber for the configured broker. The memory
// queue lives inside the serving process and cannot be consumed from here.
func NewSubscriber(cfg config.QueueConfig, subCfg Config) (Subscriber, error) {
	queueType, err := utils.ParseQueueType(cfg.Type)
	if err != nil {
		return nil, err
	}
	subCfg = subCfg.withDefaults()

	switch queueType {
	case utils.QueueTypeNATS:
		return NewNATSSubscriber(cfg.URL, subCfg)
	case utils.QueueTypeRedis:
		addr := cfg.URL
		if addr == "" {
			addr = "localhost:6379"
		}
		client, err := queue.NewRedisClient(addr, cfg.Password, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return newRedisSubscriber(client, queue.DefaultRedisPrefix, subCfg), nil
	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = []string{cfg.URL}
		}
		return NewKafkaSubscriber(brokers, subCfg)
	case utils.QueueTypeMemory:
		return nil, fmt.Errorf("memory queue events are only visible inside the serving process")
	}
	return nil, fmt.Errorf("unsupported queue type: %s", queueType)
}
