package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seriesdash/seriesdash/internal/compression"
)

// RunEvent summarises one finished forecast run.
type RunEvent struct {
	RunID        string    `json:"run_id"`
	RequestID    string    `json:"request_id,omitempty"`
	State        string    `json:"state"`
	Methods      []string  `json:"methods"`
	Succeeded    []string  `json:"succeeded"`
	Warnings     int       `json:"warnings"`
	Horizon      int       `json:"horizon"`
	Observations int       `json:"observations"`
	CacheHit     bool      `json:"cache_hit"`
	DurationMS   int64     `json:"duration_ms"`
	FinishedAt   time.Time `json:"finished_at"`
}

// EventPublisher encodes run events as JSON, frames them with the
// configured compression and publishes them on one subject.
type EventPublisher struct {
	pub     Publisher
	subject string
	algo    compression.Algorithm
	timeout time.Duration
}

// NewEventPublisher wraps pub. A zero timeout means the caller's context
// alone bounds each publish.
func NewEventPublisher(pub Publisher, subject string, algo compression.Algorithm, timeout time.Duration) *EventPublisher {
	return &EventPublisher{pub: pub, subject: subject, algo: algo, timeout: timeout}
}

// PublishRun sends ev. Nil receivers are a no-op so callers need no
// "queue enabled" checks.
func (p *EventPublisher) PublishRun(ctx context.Context, ev RunEvent) error {
	if p == nil || p.pub == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode run event: %w", err)
	}
	frame, err := compression.Encode(p.algo, payload)
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.pub.Publish(ctx, p.subject, frame)
}

// Subject returns the subject events are published on
func (p *EventPublisher) Subject() string {
	return p.subject
}

// Close closes the underlying publisher
func (p *EventPublisher) Close() error {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.Close()
}

// DecodeRunEvent reverses PublishRun's encoding.
func DecodeRunEvent(frame []byte) (RunEvent, error) {
	var ev RunEvent
	payload, err := compression.Decode(frame)
	if err != nil {
		return ev, err
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode run event: %w", err)
	}
	return ev, nil
}
