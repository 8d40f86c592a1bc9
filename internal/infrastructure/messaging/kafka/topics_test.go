package kafka

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
	"github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
	created    []kafka.TopicConfig
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func newTestTopicManager(conn ConnInterface) *TopicManager {
	return &TopicManager{conn: conn, logger: logging.NewNopLogger()}
}

func TestDefaultTopics(t *testing.T) {
	defaults := DefaultTopics(0, 0)
	require.Len(t, defaults, 3)
	assert.Equal(t, TopicAnnotateRequested, defaults[0].Name)
	assert.Equal(t, 6, defaults[0].NumPartitions)
	assert.Equal(t, 1, defaults[0].ReplicationFactor)
	assert.Equal(t, 1, defaults[2].NumPartitions)

	defaults = DefaultTopics(12, 3)
	assert.Equal(t, 12, defaults[1].NumPartitions)
	assert.Equal(t, 3, defaults[2].ReplicationFactor)
}

func TestCreateTopic_ConfigEntries(t *testing.T) {
	conn := &mockKafkaConn{}
	m := newTestTopicManager(conn)

	err := m.CreateTopic(context.Background(), common.TopicConfig{
		Name: "depict.test", NumPartitions: 1, ReplicationFactor: 1,
		RetentionMs: 1000, CleanupPolicy: "delete", MaxMessageBytes: 2048,
	})

	require.NoError(t, err)
	require.Len(t, conn.created, 1)
	assert.Equal(t, "depict.test", conn.created[0].Topic)
	assert.Len(t, conn.created[0].ConfigEntries, 3)
}

func TestCreateTopic_Validation(t *testing.T) {
	m := newTestTopicManager(&mockKafkaConn{})
	ctx := context.Background()

	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{Name: "x", ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{Name: "x", NumPartitions: 1}))
}

func TestCreateTopic_AlreadyExists(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(...kafka.TopicConfig) error { return kafka.TopicAlreadyExists }}
	m := newTestTopicManager(conn)
	assert.NoError(t, m.CreateTopic(context.Background(), common.TopicConfig{Name: "x", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestCreateTopic_Failure(t *testing.T) {
	conn := &mockKafkaConn{
		createFunc: func(...kafka.TopicConfig) error { return stderrors.New("not controller") },
		readFunc:   func(...string) ([]kafka.Partition, error) { return nil, stderrors.New("unknown topic") },
	}
	m := newTestTopicManager(conn)
	err := m.CreateTopic(context.Background(), common.TopicConfig{Name: "x", NumPartitions: 1, ReplicationFactor: 1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestEnsureDefaultTopics(t *testing.T) {
	conn := &mockKafkaConn{}
	m := newTestTopicManager(conn)
	require.NoError(t, m.EnsureDefaultTopics(context.Background(), 3, 1))
	assert.Len(t, conn.created, 3)
}

func TestAnnotateRequested_RoundTrip(t *testing.T) {
	job := &depict.AnnotateJob{JobID: "job-1", InputKey: "inputs/job-1.json"}
	env, err := NewAnnotateRequested("depict-cli", job)
	require.NoError(t, err)
	assert.Equal(t, EventAnnotateRequested, env.EventType)
	assert.Equal(t, SchemaVersion, env.SchemaVersion)

	msg, err := env.ToMessage(TopicAnnotateRequested)
	require.NoError(t, err)
	assert.Equal(t, "job-1", msg.Headers["trace_id"])

	decoded, err := MessageToEventEnvelope(&common.Message{Value: msg.Value})
	require.NoError(t, err)

	var got depict.AnnotateJob
	require.NoError(t, decoded.DecodePayload(&got))
	assert.Equal(t, *job, got)
}

func TestAnnotateRequested_RejectsInvalidJob(t *testing.T) {
	_, err := NewAnnotateRequested("depict-cli", &depict.AnnotateJob{JobID: "job-1"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobInvalid))
}

func TestMessageToEventEnvelope_Errors(t *testing.T) {
	_, err := MessageToEventEnvelope(&common.Message{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = MessageToEventEnvelope(&common.Message{Value: []byte("{")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	env := &EventEnvelope{EventID: "e1"}
	assert.True(t, errors.IsCode(env.DecodePayload(&depict.AnnotateJob{}), errors.ErrCodeValidation))
}

//Personal.AI order the ending
