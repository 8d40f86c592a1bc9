package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodePublishFailed, "producer closed")
)

// Publisher is the single-message publishing surface shared by the
// producer, the consumer's dead-letter path and the job processor.
type Publisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string
	MaxRetries       int
	RetryBackoff     time.Duration
	BatchSize        int
	BatchTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	SASLEnabled      bool
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	TLSEnabled       bool
	TLSCertPath      string
}

// ProducerMetrics holds producer metrics.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
	LastSentAt     atomic.Value // time.Time
	AvgLatencyMs   atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer manages message production.
type Producer struct {
	writer  WriterInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

func applyProducerDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1024 * 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
}

// NewProducer creates a new Producer.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	applyProducerDefaults(&cfg)

	transport := &kafka.Transport{
		DialTimeout: 10 * time.Second,
	}
	tlsConfig, err := buildTLS(cfg.TLSEnabled, cfg.TLSCertPath)
	if err != nil {
		return nil, err
	}
	transport.TLS = tlsConfig
	mech, err := buildSASL(cfg.SASLEnabled, cfg.SASLMechanism, cfg.SASLUsername, cfg.SASLPassword)
	if err != nil {
		return nil, err
	}
	transport.SASL = mech

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	var compression kafka.Compression
	switch cfg.CompressionCodec {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: requiredAcks,
		Compression:  compression,
		Transport:    transport,
	}

	return &Producer{
		writer:  writer,
		config:  cfg,
		logger:  logger,
		metrics: &ProducerMetrics{},
	}, nil
}

// Publish publishes a single message.
func (p *Producer) Publish(ctx context.Context, msg *common.ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if err := p.validate(msg); err != nil {
		return err
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, p.toKafkaMessage(msg)); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodePublishFailed, "publish failed").WithDetail(msg.Topic)
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))
	p.metrics.LastSentAt.Store(time.Now())

	latency := time.Since(start).Milliseconds()
	p.metrics.AvgLatencyMs.Store(latency)

	p.logger.Debug("Message published",
		logging.String("topic", msg.Topic),
		logging.Int64("latency_ms", latency))
	return nil
}

// PublishEvent renders env for topic and publishes it.
func (p *Producer) PublishEvent(ctx context.Context, topic string, env *EventEnvelope) error {
	msg, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// PublishBatch publishes multiple messages.  Per-message failures are
// reported in the result; the error is reserved for unusable input.
func (p *Producer) PublishBatch(ctx context.Context, msgs []*common.ProducerMessage) (*common.BatchPublishResult, error) {
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "Messages empty")
	}

	kMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		if err := p.validate(msg); err != nil {
			return nil, err.WithDetail("index " + strconv.Itoa(i))
		}
		kMsgs[i] = p.toKafkaMessage(msg)
	}

	result := &common.BatchPublishResult{}

	err := p.writer.WriteMessages(ctx, kMsgs...)
	if err != nil {
		if writeErrs, ok := err.(kafka.WriteErrors); ok {
			for i, we := range writeErrs {
				if we != nil {
					result.Failed++
					result.Errors = append(result.Errors, common.BatchItemError{
						Index: i,
						Topic: msgs[i].Topic,
						Error: we,
					})
				} else {
					result.Succeeded++
				}
			}
		} else {
			result.Failed = len(msgs)
			result.Errors = append(result.Errors, common.BatchItemError{
				Index: -1,
				Error: err,
			})
		}
	} else {
		result.Succeeded = len(msgs)
	}

	p.metrics.MessagesSent.Add(int64(result.Succeeded))
	p.metrics.MessagesFailed.Add(int64(result.Failed))

	p.logger.Info("Batch published",
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))

	return result, nil
}

// GetMetrics returns metrics snapshot.
func (p *Producer) GetMetrics() *ProducerMetrics {
	m := &ProducerMetrics{}
	m.MessagesSent.Store(p.metrics.MessagesSent.Load())
	m.MessagesFailed.Store(p.metrics.MessagesFailed.Load())
	m.BytesSent.Store(p.metrics.BytesSent.Load())
	m.AvgLatencyMs.Store(p.metrics.AvgLatencyMs.Load())
	if v := p.metrics.LastSentAt.Load(); v != nil {
		m.LastSentAt.Store(v)
	}
	return m
}

// Close closes the producer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

func (p *Producer) validate(msg *common.ProducerMessage) *errors.AppError {
	if msg == nil || msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "Topic required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "Value required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "Message too large").WithDetail(msg.Topic)
	}
	return nil
}

func (p *Producer) toKafkaMessage(msg *common.ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return kafka.Message{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Time:      ts,
		Partition: msg.Partition,
	}
}

func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "Brokers required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Connection security shared by producer and consumer
// ─────────────────────────────────────────────────────────────────────────────

func buildTLS(enabled bool, caPath string) (*tls.Config, error) {
	if !enabled {
		return nil, nil
	}
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if caPath != "" {
		caCert, err := os.ReadFile(caPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read kafka CA").WithDetail(caPath)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

func buildSASL(enabled bool, mechanism, username, password string) (sasl.Mechanism, error) {
	if !enabled {
		return nil, nil
	}
	switch mechanism {
	case "PLAIN":
		return plain.Mechanism{Username: username, Password: password}, nil
	case "SCRAM-SHA-256":
		mech, err := scram.Mechanism(scram.SHA256, username, password)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create SASL mechanism")
		}
		return mech, nil
	case "SCRAM-SHA-512":
		mech, err := scram.Mechanism(scram.SHA512, username, password)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create SASL mechanism")
		}
		return mech, nil
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unsupported SASL mechanism").WithDetail(mechanism)
	}
}

//Personal.AI order the ending
