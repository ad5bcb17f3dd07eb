// Package queue carries forecast run events to an external broker.
package queue

import "context"

// Publisher sends encoded run events. Implementations must be safe for
// concurrent use by request handlers.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// MessageHandler receives one raw frame. On error NATS redelivers the frame;
// the memory transport drops it.
type MessageHandler func(data []byte) error

// Queue is a transport that can also deliver frames back in process. The
// memory and NATS transports implement it; tests use it to observe what a
// run published.
type Queue interface {
	Publisher
	Subscribe(subject string, handler MessageHandler) error
	Unsubscribe(subject string) error
}
