package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/testutil"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

// scriptedReader serves a fixed list of messages, then blocks until ctx ends.
type scriptedReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *scriptedReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (r *scriptedReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, msg *common.ProducerMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func newTestConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "depict-worker",
		Topics:  []string{TopicAnnotateRequested},
		RetryConfig: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			DeadLetterTopic: TopicAnnotateDLQ,
		},
	}
}

func newTestConsumer(r ReaderInterface, dlq Publisher) (*Consumer, *testutil.MockLogger) {
	log := testutil.NewMockLogger()
	return &Consumer{
		reader:     r,
		config:     newTestConsumerConfig(),
		logger:     log,
		handlers:   make(map[string]common.MessageHandler),
		deadLetter: dlq,
		metrics:    &ConsumerMetrics{},
	}, log
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(newTestConsumerConfig()))

	tests := map[string]func(*ConsumerConfig){
		"no brokers":   func(c *ConsumerConfig) { c.Brokers = nil },
		"no group":     func(c *ConsumerConfig) { c.GroupID = "" },
		"no topics":    func(c *ConsumerConfig) { c.Topics = nil },
		"bad offset":   func(c *ConsumerConfig) { c.AutoOffsetReset = "middle" },
		"sasl no user": func(c *ConsumerConfig) { c.SASLEnabled = true; c.SASLMechanism = "PLAIN" },
		"neg retries":  func(c *ConsumerConfig) { c.RetryConfig.MaxRetries = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := newTestConsumerConfig()
			mutate(&cfg)
			assert.True(t, errors.IsCode(ValidateConsumerConfig(cfg), errors.ErrCodeValidation))
		})
	}
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestConsumer(&scriptedReader{}, nil)
	require.NoError(t, c.Subscribe("topic", func(ctx context.Context, msg *common.Message) error { return nil }))
	assert.Len(t, c.handlers, 1)
	assert.Error(t, c.Subscribe("", nil))
}

func TestStart_AlreadyRunning(t *testing.T) {
	c, _ := newTestConsumer(&scriptedReader{}, nil)
	c.running.Store(true)
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))
}

func TestConsumeLoop_DispatchesAndCommits(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		{Topic: TopicAnnotateRequested, Value: []byte("job"), Headers: []kafka.Header{{Key: "trace_id", Value: []byte("j1")}}},
		{Topic: "unrelated", Value: []byte("x")},
	}}
	c, log := newTestConsumer(reader, nil)

	handled := make(chan *common.Message, 1)
	require.NoError(t, c.Subscribe(TopicAnnotateRequested, func(ctx context.Context, msg *common.Message) error {
		handled <- msg
		return nil
	}))

	require.NoError(t, c.Start(context.Background()))

	select {
	case msg := <-handled:
		assert.Equal(t, "job", string(msg.Value))
		assert.Equal(t, "j1", msg.Headers["trace_id"])
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}

	assert.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	assert.True(t, log.HasMessage("warn", "No handler for topic"))
	assert.Equal(t, int64(1), c.GetMetrics().MessagesProcessed.Load())
}

func TestProcessMessage_RetrySuccess(t *testing.T) {
	c, _ := newTestConsumer(&scriptedReader{}, nil)

	attempts := 0
	handler := func(ctx context.Context, msg *common.Message) error {
		attempts++
		if attempts < 2 {
			return stderrors.New("transient")
		}
		return nil
	}

	require.NoError(t, c.processMessage(context.Background(), &common.Message{}, handler))
	assert.Equal(t, 2, attempts)
	assert.Equal(t, int64(1), c.metrics.MessagesRetried.Load())
	assert.Equal(t, int64(1), c.metrics.MessagesProcessed.Load())
}

func TestProcessMessage_RetryExhaustedGoesToDeadLetter(t *testing.T) {
	dlq := &mockPublisher{}
	var sent *common.ProducerMessage
	dlq.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*common.ProducerMessage) }).
		Return(nil)
	c, log := newTestConsumer(&scriptedReader{}, dlq)

	attempts := 0
	handler := func(ctx context.Context, msg *common.Message) error {
		attempts++
		return stderrors.New("object store down")
	}
	msg := &common.Message{Topic: TopicAnnotateRequested, Key: []byte("j1"), Value: []byte("{}"), Headers: map[string]string{"trace_id": "j1"}}

	require.NoError(t, c.processMessage(context.Background(), msg, handler))
	assert.Equal(t, 3, attempts)
	require.NotNil(t, sent)
	assert.Equal(t, TopicAnnotateDLQ, sent.Topic)
	assert.Equal(t, TopicAnnotateRequested, sent.Headers[HeaderOriginalTopic])
	assert.Equal(t, "3", sent.Headers[HeaderAttempts])
	assert.Equal(t, "j1", sent.Headers["trace_id"])
	_, mutated := msg.Headers[HeaderOriginalTopic]
	assert.False(t, mutated)
	assert.Equal(t, int64(1), c.metrics.MessagesDeadLettered.Load())
	assert.True(t, log.HasMessage("error", "Message processing failed"))
}

func TestProcessMessage_ClientErrorSkipsRetry(t *testing.T) {
	dlq := &mockPublisher{}
	dlq.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	c, _ := newTestConsumer(&scriptedReader{}, dlq)

	attempts := 0
	handler := func(ctx context.Context, msg *common.Message) error {
		attempts++
		return errors.New(errors.ErrCodeJobInvalid, "job_id is required")
	}

	require.NoError(t, c.processMessage(context.Background(), &common.Message{Topic: "t", Value: []byte("{}")}, handler))
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int64(0), c.metrics.MessagesRetried.Load())
	dlq.AssertExpectations(t)
}

func TestProcessMessage_DeadLetterFailureLogged(t *testing.T) {
	dlq := &mockPublisher{}
	dlq.On("Publish", mock.Anything, mock.Anything).Return(stderrors.New("dlq down"))
	c, log := newTestConsumer(&scriptedReader{}, dlq)
	c.config.RetryConfig.MaxRetries = 0

	err := c.processMessage(context.Background(), &common.Message{Topic: "t"}, func(ctx context.Context, msg *common.Message) error {
		return stderrors.New("fail")
	})

	assert.NoError(t, err)
	assert.True(t, log.HasMessage("error", "Failed to send to dead letter queue"))
	assert.Equal(t, int64(0), c.metrics.MessagesDeadLettered.Load())
}

func TestProcessMessage_CancelledDuringBackoff(t *testing.T) {
	c, _ := newTestConsumer(&scriptedReader{}, nil)
	c.config.RetryConfig.RetryBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.processMessage(ctx, &common.Message{}, func(ctx context.Context, msg *common.Message) error {
		return stderrors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

//Personal.AI order the ending
