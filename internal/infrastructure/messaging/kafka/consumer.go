package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
)

// Headers added to dead-lettered messages.
const (
	HeaderOriginalTopic  = "original_topic"
	HeaderErrorMessage   = "error_message"
	HeaderErrorCode      = "error_code"
	HeaderAttempts       = "attempts"
	HeaderDeadLetteredAt = "dead_lettered_at"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers            []string
	GroupID            string
	Topics             []string
	AutoOffsetReset    string
	AutoCommitInterval time.Duration
	SessionTimeout     time.Duration
	HeartbeatInterval  time.Duration
	MaxWait            time.Duration
	FetchMinBytes      int
	FetchMaxBytes      int
	IsolationLevel     string
	SASLEnabled        bool
	SASLMechanism      string
	SASLUsername       string
	SASLPassword       string
	TLSEnabled         bool
	TLSCertPath        string
	RetryConfig        RetryConfig
}

// ConsumerMetrics holds consumer metrics.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesRetried      atomic.Int64
	MessagesDeadLettered atomic.Int64
	LastConsumedAt       atomic.Value // time.Time
	Lag                  atomic.Int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.ReaderStats
}

// Consumer reads one consumer group and dispatches messages to per-topic
// handlers.  Failed messages are retried with exponential backoff and then
// dead-lettered; the offset is committed either way.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]common.MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter Publisher
	ownsDLQ    bool
	metrics    *ConsumerMetrics
}

// NewConsumer creates a new Consumer.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.AutoCommitInterval == 0 {
		cfg.AutoCommitInterval = 5 * time.Second
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 3 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 10 * time.Second
	}
	if cfg.FetchMinBytes == 0 {
		cfg.FetchMinBytes = 1
	}
	if cfg.FetchMaxBytes == 0 {
		cfg.FetchMaxBytes = 50 * 1024 * 1024
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       cfg.Topics,
		MinBytes:          cfg.FetchMinBytes,
		MaxBytes:          cfg.FetchMaxBytes,
		MaxWait:           cfg.MaxWait,
		CommitInterval:    cfg.AutoCommitInterval,
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		StartOffset:       kafka.FirstOffset,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	tlsConfig, err := buildTLS(cfg.TLSEnabled, cfg.TLSCertPath)
	if err != nil {
		return nil, err
	}
	dialer.TLS = tlsConfig
	mech, err := buildSASL(cfg.SASLEnabled, cfg.SASLMechanism, cfg.SASLUsername, cfg.SASLPassword)
	if err != nil {
		return nil, err
	}
	dialer.SASLMechanism = mech
	readerCfg.Dialer = dialer

	if cfg.IsolationLevel == "read_committed" {
		readerCfg.IsolationLevel = kafka.ReadCommitted
	}

	c := &Consumer{
		reader:   kafka.NewReader(readerCfg),
		config:   cfg,
		logger:   logger,
		handlers: make(map[string]common.MessageHandler),
		metrics:  &ConsumerMetrics{},
	}

	if cfg.RetryConfig.DeadLetterTopic != "" {
		p, err := NewProducer(ProducerConfig{
			Brokers:       cfg.Brokers,
			SASLEnabled:   cfg.SASLEnabled,
			SASLMechanism: cfg.SASLMechanism,
			SASLUsername:  cfg.SASLUsername,
			SASLPassword:  cfg.SASLPassword,
			TLSEnabled:    cfg.TLSEnabled,
			TLSCertPath:   cfg.TLSCertPath,
		}, logger)
		if err != nil {
			_ = c.reader.Close()
			return nil, err
		}
		c.deadLetter = p
		c.ownsDLQ = true
	}
	return c, nil
}

// Subscribe registers handler for topic.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) error {
	if topic == "" || handler == nil {
		return errors.New(errors.ErrCodeValidation, "topic and handler required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
	return nil
}

// Start launches the consume loop and returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)

	go c.consumeLoop(ctx)

	c.logger.Info("Kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

// Run starts the consumer and blocks until ctx is done, then closes it.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return c.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage error", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.metrics.MessagesConsumed.Add(1)
		c.metrics.LastConsumedAt.Store(time.Now())
		if m.HighWaterMark > 0 {
			c.metrics.Lag.Store(m.HighWaterMark - m.Offset - 1)
		}

		msg := fromKafkaMessage(m)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		} else if err := c.processMessage(ctx, msg, handler); err != nil {
			// Only cancellation reaches here; leave the offset for redelivery.
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

// processMessage returns an error only when ctx is cancelled mid-retry.
func (c *Consumer) processMessage(ctx context.Context, msg *common.Message, handler common.MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		c.metrics.MessagesProcessed.Add(1)
		return nil
	}

	maxRetries := c.config.RetryConfig.MaxRetries
	backoff := c.config.RetryConfig.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	maxBackoff := c.config.RetryConfig.MaxRetryBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	attempts := 1
	// Client-side failures (malformed jobs, invalid graphs) never succeed on retry.
	for i := 0; i < maxRetries && !errors.IsClientError(errors.GetCode(err)); i++ {
		c.metrics.MessagesRetried.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		attempts++
		if err = handler(ctx, msg); err == nil {
			c.metrics.MessagesProcessed.Add(1)
			return nil
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.metrics.MessagesFailed.Add(1)
	c.logger.Error("Message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))

	c.sendToDeadLetter(ctx, msg, err, attempts)
	return nil
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *common.Message, cause error, attempts int) {
	if c.deadLetter == nil || c.config.RetryConfig.DeadLetterTopic == "" {
		return
	}

	headers := make(map[string]string, len(msg.Headers)+5)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorMessage] = cause.Error()
	headers[HeaderErrorCode] = errors.GetCode(cause).String()
	headers[HeaderAttempts] = strconv.Itoa(attempts)
	headers[HeaderDeadLetteredAt] = time.Now().UTC().Format(time.RFC3339)

	dlMsg := &common.ProducerMessage{
		Topic:   c.config.RetryConfig.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if err := c.deadLetter.Publish(ctx, dlMsg); err != nil {
		c.logger.Error("Failed to send to dead letter queue",
			logging.String("topic", dlMsg.Topic),
			logging.Err(err))
		return
	}
	c.metrics.MessagesDeadLettered.Add(1)
}

func fromKafkaMessage(m kafka.Message) *common.Message {
	msg := &common.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// GetMetrics returns a snapshot of metrics.
func (c *Consumer) GetMetrics() *ConsumerMetrics {
	m := &ConsumerMetrics{}
	m.MessagesConsumed.Store(c.metrics.MessagesConsumed.Load())
	m.MessagesProcessed.Store(c.metrics.MessagesProcessed.Load())
	m.MessagesFailed.Store(c.metrics.MessagesFailed.Load())
	m.MessagesRetried.Store(c.metrics.MessagesRetried.Load())
	m.MessagesDeadLettered.Store(c.metrics.MessagesDeadLettered.Load())
	m.Lag.Store(c.metrics.Lag.Load())
	if v := c.metrics.LastConsumedAt.Load(); v != nil {
		m.LastConsumedAt.Store(v)
	}
	return m
}

// Close stops the loop and releases the reader and dead-letter producer.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if closer, ok := c.deadLetter.(interface{ Close() error }); ok && c.ownsDLQ {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	c.logger.Info("Kafka consumer closed",
		logging.Int64("consumed", c.metrics.MessagesConsumed.Load()),
		logging.Int64("dead_lettered", c.metrics.MessagesDeadLettered.Load()))
	return err
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "Brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "GroupID required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "Topics required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.ErrCodeValidation, "Invalid AutoOffsetReset")
	}
	if cfg.SASLEnabled {
		if cfg.SASLMechanism == "" {
			return errors.New(errors.ErrCodeValidation, "SASLMechanism required")
		}
		if cfg.SASLUsername == "" || cfg.SASLPassword == "" {
			return errors.New(errors.ErrCodeValidation, "SASL credentials required")
		}
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
