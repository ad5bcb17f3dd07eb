package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var mu sync.Mutex
	var received [][]byte
	done := make(chan struct{}, 3)

	if err := q.Subscribe("runs", func(data []byte) error {
		mu.Lock()
		received = append(received, data)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for _, msg := range []string{"a", "b", "c"} {
		if err := q.Publish(context.Background(), "runs", []byte(msg)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for messages")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 3 || string(received[0]) != "a" || string(received[2]) != "c" {
		t.Errorf("Unexpected messages: %q", received)
	}
}

func TestMemoryQueue_BuffersWithoutSubscriber(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	buf := []byte("x")
	if err := q.Publish(context.Background(), "runs", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'y'
	if q.Pending("runs") != 1 {
		t.Errorf("Expected 1 pending message, got %d", q.Pending("runs"))
	}
}

func TestMemoryQueue_SubscribeTwice(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	handler := func([]byte) error { return nil }
	if err := q.Subscribe("runs", handler); err != nil {
		t.Fatal(err)
	}
	if err := q.Subscribe("runs", handler); err == nil {
		t.Error("Expected error on double subscribe")
	}
	if err := q.Unsubscribe("runs"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := q.Unsubscribe("runs"); err == nil {
		t.Error("Expected error unsubscribing twice")
	}
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue()
	_ = q.Close()
	if err := q.Publish(context.Background(), "runs", []byte("x")); err == nil {
		t.Error("Expected error publishing to a closed queue")
	}
	if err := q.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
}
