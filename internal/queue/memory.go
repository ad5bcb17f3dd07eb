package queue

import (
	"context"
	"fmt"
	"sync"
)

// memoryBuffer is the per-subject channel capacity.
const memoryBuffer = 1024

var _ Queue = (*MemoryQueue)(nil)

// MemoryQueue implements Queue interface using in-memory channels.
// Messages published before anyone subscribes are buffered.
type MemoryQueue struct {
	channels      map[string]chan []byte
	subscriptions map[string]context.CancelFunc
	closed        bool
	mu            sync.RWMutex
}

// NewMemoryQueue creates a new in-memory queue instance
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		channels:      make(map[string]chan []byte),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// channel returns the subject's channel, creating it on first use.
// Callers hold q.mu.
func (q *MemoryQueue) channel(subject string) chan []byte {
	if ch, ok := q.channels[subject]; ok {
		return ch
	}
	ch := make(chan []byte, memoryBuffer)
	q.channels[subject] = ch
	return ch
}

// Publish publishes a message to an in-memory channel. It never blocks:
// a full buffer is an error.
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("memory queue closed")
	}
	ch := q.channel(subject)

	// copy so callers may reuse their buffer
	msg := append([]byte(nil), data...)

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// Subscribe consumes the subject's messages in a background goroutine.
// Handler errors are dropped.
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("memory queue closed")
	}
	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ch := q.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}
				_ = handler(data)
			}
		}
	}()
	return nil
}

// Unsubscribe unsubscribes from a channel
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close cancels all subscriptions and closes all channels
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true

	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	for subject, ch := range q.channels {
		close(ch)
		delete(q.channels, subject)
	}
	return nil
}

// Pending returns the number of buffered messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if ch, ok := q.channels[subject]; ok {
		return len(ch)
	}
	return 0
}
