package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seriesdash/seriesdash/internal/compression"
	"github.com/seriesdash/seriesdash/internal/config"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte) error { return errors.New("down") }
func (failingPublisher) Close() error                                  { return nil }

func TestEventPublisher_RoundTrip(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	got := make(chan RunEvent, 1)
	if err := q.Subscribe("seriesdash.runs", func(frame []byte) error {
		ev, err := DecodeRunEvent(frame)
		if err != nil {
			return err
		}
		got <- ev
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	p := NewEventPublisher(q, "seriesdash.runs", compression.Snappy, time.Second)
	ev := RunEvent{
		RunID:     "run-1",
		State:     "completed",
		Methods:   []string{"naive", "drift"},
		Succeeded: []string{"naive"},
		Warnings:  1,
		Horizon:   24,
	}
	if err := p.PublishRun(context.Background(), ev); err != nil {
		t.Fatalf("PublishRun failed: %v", err)
	}

	select {
	case e := <-got:
		if e.RunID != "run-1" || e.Warnings != 1 || len(e.Methods) != 2 {
			t.Errorf("Unexpected event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for run event")
	}
}

func TestEventPublisher_NilAndErrors(t *testing.T) {
	var p *EventPublisher
	if err := p.PublishRun(context.Background(), RunEvent{}); err != nil {
		t.Errorf("Nil publisher should be a no-op, got %v", err)
	}

	p = NewEventPublisher(failingPublisher{}, "runs", compression.None, 0)
	if err := p.PublishRun(context.Background(), RunEvent{RunID: "x"}); err == nil {
		t.Error("Expected publisher error to surface")
	}

	if _, err := DecodeRunEvent([]byte{byte(compression.None), '{'}); err == nil {
		t.Error("Expected JSON decode error")
	}
}

func TestNewPublisher(t *testing.T) {
	pub, err := NewPublisher(config.QueueConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("memory publisher: %v", err)
	}
	if _, ok := pub.(*MemoryQueue); !ok {
		t.Errorf("Expected *MemoryQueue, got %T", pub)
	}
	_ = pub.Close()

	if _, err := NewPublisher(config.QueueConfig{Type: "rabbitmq"}); err == nil {
		t.Error("Expected error for unsupported type")
	}
	if _, err := NewPublisher(config.QueueConfig{Type: "kafka"}); err == nil {
		t.Error("Expected error for kafka without brokers")
	}
}
