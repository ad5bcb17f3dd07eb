package subscriber

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/queue"
)

// NATSSubscriber implements Subscriber for NATS JetStream with durable
// consumers, so a restarted consumer resumes where it stopped.
type NATSSubscriber struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	cfg           Config
	log           *logging.Logger
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex
}

// NewNATSSubscriber creates a new NATS subscriber
func NewNATSSubscriber(url string, cfg Config) (*NATSSubscriber, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With("component", "subscriber.nats")

	opts := []nats.Option{
		nats.Name(cfg.ConsumerID),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSSubscriber{
		conn:          conn,
		js:            js,
		cfg:           cfg,
		log:           log,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// Subscribe subscribes to a subject with the given handler
func (s *NATSSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	if err := queue.EnsureStream(s.js, subject); err != nil {
		return err
	}

	durableName := s.durableName(subject)

	var msgCount uint64

	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		currentCount := atomic.AddUint64(&msgCount, 1)

		if ctx.Err() != nil {
			_ = msg.Nak()
			return
		}

		if err := handler(ctx, msg.Subject, msg.Data); err != nil {
			s.log.Error("Failed to handle message",
				"subject", msg.Subject,
				"msg_count", currentCount,
				"error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durableName),
		nats.ManualAck(),
		nats.MaxAckPending(s.cfg.BatchSize),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(s.cfg.MaxRetries),
		nats.DeliverNew(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.subscriptions[subject] = sub
	s.log.Info("Subscribed to subject", "subject", subject, "durable", durableName)
	return nil
}

// durableName must be unique per subject and may not contain dots.
func (s *NATSSubscriber) durableName(subject string) string {
	return queue.SanitizeName(fmt.Sprintf("%s-%s-%s", s.cfg.ConsumerGroup, s.cfg.ConsumerID, subject))
}

// Unsubscribe unsubscribes from a subject
func (s *NATSSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
	}

	delete(s.subscriptions, subject)
	s.log.Info("Unsubscribed from subject", "subject", subject)
	return nil
}

// Close drops the subscriptions and closes the connection. Durable
// consumers stay on the server.
func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for subject, sub := range s.subscriptions {
		if err := sub.Drain(); err != nil {
			s.log.Warn("Failed to drain subscription", "subject", subject, "error", err)
		}
	}
	s.subscriptions = make(map[string]*nats.Subscription)

	s.conn.Close()
	s.log.Info("NATS subscriber closed")
	return nil
}
