package subscriber

import (
	"context"

	"github.com/seriesdash/seriesdash/internal/logging"
)

// MessageHandler is a function that processes incoming messages
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// Subscriber defines the interface for message subscription
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with the given handler
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the subscriber and releases resources
	Close() error
}

// Config holds common subscriber configuration
type Config struct {
	// ConsumerID identifies this consumer inside its group
	ConsumerID string

	// ConsumerGroup shares the stream between consumers; each event goes
	// to one member of the group
	ConsumerGroup string

	// MaxRetries is the maximum number of deliveries for a failed message
	MaxRetries int

	// BatchSize is the number of messages to fetch in a batch (where applicable)
	BatchSize int

	// Logger defaults to logging.Global()
	Logger *logging.Logger
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		ConsumerID:    "seriesdash-events",
		ConsumerGroup: "seriesdash",
		MaxRetries:    3,
		BatchSize:     100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConsumerID == "" {
		c.ConsumerID = d.ConsumerID
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = d.ConsumerGroup
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BatchSize < 1 {
		c.BatchSize = d.BatchSize
	}
	if c.Logger == nil {
		c.Logger = logging.Global()
	}
	return c
}
