package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStreamMaxLen caps each stream, approximately.
const redisStreamMaxLen = 10000

// DefaultRedisPrefix prefixes every stream name.
const DefaultRedisPrefix = "seriesdash"

// RedisStreamName is the stream that holds subject under prefix.
func RedisStreamName(prefix, subject string) string {
	return fmt.Sprintf("%s:%s", prefix, subject)
}

// NewRedisClient connects to a redis:// URL or a plain host:port.
func NewRedisClient(url, password string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// plain host:port
		opts = &redis.Options{
			Addr:     url,
			Password: password,
			DB:       db,
		}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379) or host:port
	Password string
	DB       int
	Prefix   string // Stream name prefix (default: "seriesdash")
}

// RedisPublisher appends messages to Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func newRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client, err := NewRedisClient(cfg.URL, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}
	return &RedisPublisher{client: client, prefix: cfg.Prefix}, nil
}

func (p *RedisPublisher) streamName(subject string) string {
	return RedisStreamName(p.prefix, subject)
}

// Publish adds the message under the "data" field of the subject's stream.
func (p *RedisPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	stream := p.streamName(subject)
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: redisStreamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", stream, err)
	}
	return nil
}

// Close closes the Redis client
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
