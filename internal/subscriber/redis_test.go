package subscriber

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/seriesdash/seriesdash/internal/compression"
	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/queue"
)

const testRedisAddr = "localhost:6379"

func isRedisAvailable() bool {
	client, err := queue.NewRedisClient(testRedisAddr, "", 15)
	if err != nil {
		return false
	}
	_ = client.Close()
	return true
}

func TestRedisSubscriber_ReceivesRunEvents(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available at " + testRedisAddr)
	}

	subject := "test-runs-" + uuid.NewString()
	cfg := config.QueueConfig{Type: "redis", URL: testRedisAddr, RedisDB: 15, Subject: subject}

	sub, err := NewSubscriber(cfg, Config{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("Failed to create subscriber: %v", err)
	}
	defer func() { _ = sub.Close() }()

	received := make(chan queue.RunEvent, 1)
	err = sub.Subscribe(context.Background(), subject, RunEvents(logging.NewNop(), func(ctx context.Context, ev queue.RunEvent) error {
		received <- ev
		return nil
	}))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	pub, err := queue.NewPublisher(cfg)
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}
	events := queue.NewEventPublisher(pub, subject, compression.None, 5*time.Second)
	defer func() { _ = events.Close() }()

	if err := events.PublishRun(context.Background(), queue.RunEvent{RunID: "run-7", State: "failed"}); err != nil {
		t.Fatalf("PublishRun failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.RunID != "run-7" || ev.State != "failed" {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the run event")
	}
}
