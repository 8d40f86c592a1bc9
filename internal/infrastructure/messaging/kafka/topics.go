package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
	"github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// Topic Constants
const (
	TopicAnnotateRequested = "depict.annotate.requested"
	TopicAnnotateCompleted = "depict.annotate.completed"
	TopicAnnotateDLQ       = "depict.annotate.requested.dlq"
)

// Event types carried in the envelope and the event_type header.
const (
	EventAnnotateRequested = "annotate.requested"
	EventAnnotateCompleted = "annotate.completed"
)

// SchemaVersion is stamped on every envelope this service produces.
const SchemaVersion = "v1"

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope wraps payload in a fresh envelope.
func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// NewAnnotateRequested builds the envelope for a queued annotation job.
func NewAnnotateRequested(source string, job *depict.AnnotateJob) (*EventEnvelope, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	env, err := NewEventEnvelope(EventAnnotateRequested, source, job)
	if err != nil {
		return nil, err
	}
	env.TraceID = job.JobID
	return env, nil
}

// NewAnnotateCompleted builds the envelope reporting a job outcome.
func NewAnnotateCompleted(source string, done *depict.AnnotateCompleted) (*EventEnvelope, error) {
	env, err := NewEventEnvelope(EventAnnotateCompleted, source, done)
	if err != nil {
		return nil, err
	}
	env.TraceID = done.JobID
	return env, nil
}

// DecodePayload unmarshals the payload into target.  An absent payload is
// an error since every event this service consumes carries one.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event payload is empty").
			WithDetail("event_id=" + e.EventID)
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}

// ToMessage renders the envelope as a producer message keyed by trace id so
// events of one job land on one partition.
func (e *EventEnvelope) ToMessage(topic string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	var key []byte
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
		key = []byte(e.TraceID)
	}
	return &common.ProducerMessage{
		Topic:     topic,
		Key:       key,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions the topics the worker relies on.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to dial kafka")
	}
	return &TopicManager{
		conn:   conn,
		logger: logger,
	}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg common.TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.ErrCodeValidation, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries:     make([]kafka.ConfigEntry, 0),
	}

	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if cfg.MaxMessageBytes > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "max.message.bytes", ConfigValue: fmt.Sprintf("%d", cfg.MaxMessageBytes)})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if err == kafka.TopicAlreadyExists || strings.Contains(err.Error(), "already exists") {
			return nil
		}
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []common.TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) EnsureDefaultTopics(ctx context.Context, partitions, replication int) error {
	return m.EnsureTopics(ctx, DefaultTopics(partitions, replication))
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// DefaultTopics lists the request, completion and dead-letter topics.
// Non-positive arguments fall back to 6 partitions and replication 1.
func DefaultTopics(partitions, replication int) []common.TopicConfig {
	if partitions <= 0 {
		partitions = 6
	}
	if replication <= 0 {
		replication = 1
	}
	const day = int64(24 * 3600 * 1000)
	return []common.TopicConfig{
		{Name: TopicAnnotateRequested, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 3 * day},
		{Name: TopicAnnotateCompleted, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: TopicAnnotateDLQ, NumPartitions: 1, ReplicationFactor: replication, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
