package subscriber

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/seriesdash/seriesdash/internal/logging"
)

// KafkaSubscriber implements Subscriber for Kafka consumer groups
type KafkaSubscriber struct {
	brokers []string
	cfg     Config
	log     *logging.Logger
	readers map[string]*kafka.Reader
	cancels map[string]context.CancelFunc
	mu      sync.RWMutex
}

// NewKafkaSubscriber creates a new Kafka subscriber
func NewKafkaSubscriber(brokers []string, cfg Config) (*KafkaSubscriber, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	cfg = cfg.withDefaults()

	return &KafkaSubscriber{
		brokers: brokers,
		cfg:     cfg,
		log:     cfg.Logger.With("component", "subscriber.kafka"),
		readers: make(map[string]*kafka.Reader),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// readerConfig starts a new group at the newest offset; an existing group
// resumes from its committed offset.
func (s *KafkaSubscriber) readerConfig(topic string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:           s.brokers,
		GroupID:           s.cfg.ConsumerGroup,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           3 * time.Second,
		CommitInterval:    time.Second,
		StartOffset:       kafka.LastOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			s.log.Debug(fmt.Sprintf(msg, args...), "topic", topic)
		}),
	}
}

// Subscribe subscribes to a topic with the given handler
func (s *KafkaSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic := subject
	if _, exists := s.readers[topic]; exists {
		return fmt.Errorf("already subscribed to topic: %s", topic)
	}

	reader := kafka.NewReader(s.readerConfig(topic))
	s.readers[topic] = reader

	subCtx, cancel := context.WithCancel(ctx)
	s.cancels[topic] = cancel

	go s.consume(subCtx, reader, subject, handler)

	s.log.Info("Subscribed to Kafka topic", "topic", topic, "group", s.cfg.ConsumerGroup)
	return nil
}

// consume reads messages from the topic and processes them
func (s *KafkaSubscriber) consume(ctx context.Context, reader *kafka.Reader, subject string, handler MessageHandler) {
	topic := reader.Config().Topic
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("Failed to fetch message", "topic", topic, "error", err)
			time.Sleep(time.Second)
			continue
		}

		if err := handler(ctx, subject, msg.Value); err != nil {
			// not committed, so the group sees it again after a rebalance
			s.log.Error("Failed to handle message", "topic", topic, "offset", msg.Offset, "error", err)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			s.log.Error("Failed to commit message", "topic", topic, "offset", msg.Offset, "error", err)
		}
	}
}

// Unsubscribe unsubscribes from a topic
func (s *KafkaSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, exists := s.cancels[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}

	cancel()
	delete(s.cancels, subject)

	if reader, ok := s.readers[subject]; ok {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close reader", "topic", subject, "error", err)
		}
		delete(s.readers, subject)
	}

	s.log.Info("Unsubscribed from Kafka topic", "topic", subject)
	return nil
}

// Close closes all readers and subscriptions
func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = make(map[string]context.CancelFunc)

	var lastErr error
	for topic, reader := range s.readers {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close reader", "topic", topic, "error", err)
			lastErr = err
		}
	}
	s.readers = make(map[string]*kafka.Reader)

	s.log.Info("Kafka subscriber closed")
	return lastErr
}
