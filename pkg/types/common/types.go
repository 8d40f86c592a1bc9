// Package common holds the plain data types shared across layers: health
// reporting and the broker-neutral message shapes of the messaging layer.
package common

import (
	"context"
	"time"
)

// HealthStatus indicates the health of a component or service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth provides health information for a specific component.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency"`
	Message string        `json:"message"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Messaging
// ─────────────────────────────────────────────────────────────────────────────

// Message is a record received from the broker.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to be written to the broker.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Partition int
	Timestamp time.Time
}

// MessageHandler processes one consumed message. A non-nil error triggers the
// consumer's retry policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes a topic to be provisioned.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}

// BatchItemError reports the failure of one message in a batch write.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// BatchPublishResult summarises a batch write.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

//Personal.AI order the ending
