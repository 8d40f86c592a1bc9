package config

import (
	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/storage/minio"
)

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure conversions
// ─────────────────────────────────────────────────────────────────────────────

// LoggerConfig converts the log section for logging.NewLogger.
func (c *Config) LoggerConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:       c.Log.Level,
		Format:      c.Log.Format,
		OutputPaths: c.Log.OutputPaths,
	}
}

// CollectorConfig converts the metrics section for
// prometheus.NewMetricsCollector.
func (c *Config) CollectorConfig() prometheus.CollectorConfig {
	return prometheus.CollectorConfig{
		Namespace:            c.Metrics.Namespace,
		EnableProcessMetrics: c.Metrics.EnableProcessMetrics,
		EnableGoMetrics:      c.Metrics.EnableGoMetrics,
	}
}

// RedisClientConfig converts the redis section for redis.NewClient.
func (c *Config) RedisClientConfig() *redis.RedisConfig {
	cfg := &redis.RedisConfig{
		Mode:         c.Redis.Mode,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		PoolSize:     c.Redis.PoolSize,
		DialTimeout:  c.Redis.DialTimeout,
		ReadTimeout:  c.Redis.ReadTimeout,
		WriteTimeout: c.Redis.WriteTimeout,
	}
	if c.Redis.Mode == "cluster" {
		cfg.ClusterAddrs = []string{c.Redis.Addr}
	} else {
		cfg.Addr = c.Redis.Addr
	}
	return cfg
}

// PostgresClientConfig converts the postgres section for postgres.NewConnection.
func (c *Config) PostgresClientConfig() postgres.PostgresConfig {
	return postgres.PostgresConfig{
		Host:             c.Postgres.Host,
		Port:             c.Postgres.Port,
		Database:         c.Postgres.Database,
		Username:         c.Postgres.Username,
		Password:         c.Postgres.Password,
		SSLMode:          c.Postgres.SSLMode,
		MaxOpenConns:     c.Postgres.MaxOpenConns,
		MaxIdleConns:     c.Postgres.MaxIdleConns,
		ConnMaxLifetime:  c.Postgres.ConnMaxLifetime,
		StatementTimeout: c.Postgres.StatementTimeout,
	}
}

// MinIOClientConfig converts the minio section for minio.NewMinIOClient.
func (c *Config) MinIOClientConfig() *minio.MinIOConfig {
	return &minio.MinIOConfig{
		Endpoint:         c.MinIO.Endpoint,
		AccessKeyID:      c.MinIO.AccessKey,
		SecretAccessKey:  c.MinIO.SecretKey,
		UseSSL:           c.MinIO.UseSSL,
		Region:           c.MinIO.Region,
		Bucket:           c.MinIO.Bucket,
		InputPrefix:      c.MinIO.InputPrefix,
		ResultPrefix:     c.MinIO.ResultPrefix,
		ResultExpiryDays: c.MinIO.ResultExpiryDays,
	}
}

// ProducerConfig converts the kafka section for kafka.NewProducer.
func (c *Config) ProducerConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      c.Kafka.Brokers,
		Acks:         "all",
		MaxRetries:   c.Kafka.ProducerRetries,
		BatchSize:    c.Kafka.BatchSize,
		WriteTimeout: c.Kafka.WriteTimeout,
	}
}

// ConsumerConfig converts the kafka and worker sections for kafka.NewConsumer.
// Failed jobs are retried worker.max_retries times and then dead-lettered.
func (c *Config) ConsumerConfig(topics ...string) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:         c.Kafka.Brokers,
		GroupID:         c.Kafka.GroupID,
		Topics:          topics,
		AutoOffsetReset: c.Kafka.AutoOffsetReset,
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      c.Worker.MaxRetries,
			RetryBackoff:    c.Worker.RetryBackoff,
			MaxRetryBackoff: 8 * c.Worker.RetryBackoff,
			DeadLetterTopic: kafka.TopicAnnotateDLQ,
		},
	}
}

// ServiceConfig converts the depict section for depict.NewService.
func (c *Config) ServiceConfig() depict.Config {
	return depict.Config{
		Defaults: depict.Defaults{
			HydrogenDisplay: c.Depict.HydrogenDisplay,
			Dative:          c.Depict.Dative,
			Hydrates:        c.Depict.Hydrates,
			Sync:            c.Depict.Sync,
			MapChanges:      c.Depict.MapChanges,
		},
		MaxAtoms: c.Depict.MaxAtoms,
		CacheTTL: c.Depict.CacheTTL,
	}
}

//Personal.AI order the ending
