package utils

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout bounds a whole forecast request
	DefaultRequestTimeout = 2 * time.Minute

	// PublishTimeout is the timeout for publishing a run event
	PublishTimeout = 5 * time.Second

	// ShutdownTimeout is how long the server waits for in-flight requests
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Request Constants
// =============================================================================

const (
	// PreviewRows is how many raw rows the forecast response echoes back
	PreviewRows = 10

	// DefaultRunSubject is where run events are published
	DefaultRunSubject = "seriesdash.runs"

	// RequestIDHeader carries the request id
	RequestIDHeader = "X-Request-ID"
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (default, and for testing)
	QueueTypeMemory QueueType = "memory"
)

// ParseQueueType resolves a configured queue type; empty means memory.
func ParseQueueType(s string) (QueueType, error) {
	switch qt := QueueType(strings.ToLower(strings.TrimSpace(s))); qt {
	case "":
		return QueueTypeMemory, nil
	case QueueTypeNATS, QueueTypeRedis, QueueTypeKafka, QueueTypeMemory:
		return qt, nil
	}
	return "", fmt.Errorf("unsupported queue type: %s", s)
}
