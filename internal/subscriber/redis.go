package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/queue"
)

// RedisSubscriber implements Subscriber for Redis Streams consumer groups
type RedisSubscriber struct {
	client        *redis.Client
	streamPrefix  string // must match the publisher's prefix
	cfg           Config
	log           *logging.Logger
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.RWMutex
}

func newRedisSubscriber(client *redis.Client, streamPrefix string, cfg Config) *RedisSubscriber {
	cfg = cfg.withDefaults()
	return &RedisSubscriber{
		client:        client,
		streamPrefix:  streamPrefix,
		cfg:           cfg,
		log:           cfg.Logger.With("component", "subscriber.redis"),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// Subscribe joins the consumer group of the subject's stream, creating
// both if needed. Only events added after the group was created are read.
func (s *RedisSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	streamName := queue.RedisStreamName(s.streamPrefix, subject)

	if _, exists := s.subscriptions[streamName]; exists {
		return fmt.Errorf("already subscribed to stream: %s", streamName)
	}

	err := s.client.XGroupCreateMkStream(ctx, streamName, s.cfg.ConsumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.subscriptions[streamName] = cancel

	s.wg.Add(1)
	go s.consume(subCtx, streamName, subject, handler)

	s.log.Info("Subscribed to Redis stream", "stream", streamName, "group", s.cfg.ConsumerGroup, "consumer", s.cfg.ConsumerID)
	return nil
}

// consume reads messages from the stream and processes them
func (s *RedisSubscriber) consume(ctx context.Context, streamName, subject string, handler MessageHandler) {
	defer s.wg.Done()

	for ctx.Err() == nil {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.cfg.ConsumerGroup,
			Consumer: s.cfg.ConsumerID,
			Streams:  []string{streamName, ">"},
			Count:    int64(s.cfg.BatchSize),
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.log.Error("Failed to read from stream", "stream", streamName, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				s.handle(ctx, streamName, subject, message, handler)
			}
		}
	}
}

func (s *RedisSubscriber) handle(ctx context.Context, streamName, subject string, message redis.XMessage, handler MessageHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		s.log.Warn("Invalid message format", "stream", streamName, "id", message.ID)
		s.client.XAck(ctx, streamName, s.cfg.ConsumerGroup, message.ID)
		return
	}

	if err := handler(ctx, subject, []byte(data)); err != nil {
		// left pending for redelivery
		s.log.Error("Failed to handle message", "stream", streamName, "id", message.ID, "error", err)
		return
	}

	if err := s.client.XAck(ctx, streamName, s.cfg.ConsumerGroup, message.ID).Err(); err != nil {
		s.log.Error("Failed to ACK message", "stream", streamName, "id", message.ID, "error", err)
	}
}

// Unsubscribe unsubscribes from a stream
func (s *RedisSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	streamName := queue.RedisStreamName(s.streamPrefix, subject)
	cancel, exists := s.subscriptions[streamName]
	if !exists {
		return fmt.Errorf("not subscribed to stream: %s", streamName)
	}

	cancel()
	delete(s.subscriptions, streamName)
	s.log.Info("Unsubscribed from Redis stream", "stream", streamName)
	return nil
}

// Close stops every consumer loop and closes the client
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	for _, cancel := range s.subscriptions {
		cancel()
	}
	s.subscriptions = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	s.log.Info("Redis subscriber closed")
	return nil
}
