// Package config defines all configuration structures for KeyIP-Depict.  No
// I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
)

// Version is stamped at build time through -ldflags.
var Version = "dev"

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	// RateLimitRPS is the per-client refill rate of /api/v1; 0 disables
	// rate limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// RedisConfig holds the result-cache and job-lock backend.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Mode         string        `mapstructure:"mode"` // "standalone" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	GroupID           string        `mapstructure:"group_id"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries   int           `mapstructure:"producer_retries"`
	BatchSize         int           `mapstructure:"batch_size"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	NumPartitions     int           `mapstructure:"num_partitions"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Endpoint         string `mapstructure:"endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	InputPrefix      string `mapstructure:"input_prefix"`
	ResultPrefix     string `mapstructure:"result_prefix"`
	ResultExpiryDays int    `mapstructure:"result_expiry_days"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	HealthPort     int           `mapstructure:"health_port"`
	Source         string        `mapstructure:"source"`
}

// PostgresConfig holds the job ledger database.
type PostgresConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Database         string        `mapstructure:"database"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// GRPCConfig holds the gRPC listener of the API server.
type GRPCConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	MaxRecvMsgSize  int           `mapstructure:"max_recv_msg_size"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// DepictConfig holds the annotation defaults applied when a request leaves
// an option unset.
type DepictConfig struct {
	HydrogenDisplay string        `mapstructure:"hydrogen_display"`
	Dative          string        `mapstructure:"dative"`
	Hydrates        bool          `mapstructure:"hydrates"`
	Sync            bool          `mapstructure:"sync"`
	MapChanges      bool          `mapstructure:"map_changes"`
	MaxAtoms        int           `mapstructure:"max_atoms"`
	CacheEnabled    bool          `mapstructure:"cache_enabled"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure shared by the API server, the
// worker and the CLI.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Depict   DepictConfig   `mapstructure:"depict"`
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Metrics:  MetricsConfig{Enabled: true, EnableGoMetrics: true},
		Postgres: PostgresConfig{AutoMigrate: true},
		Depict:   DepictConfig{Sync: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("config: server.max_body_size must be ≥ 0, got %d", c.Server.MaxBodySize)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be ≥ 0, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("config: server.rate_limit_burst must be ≥ 1 when rate limiting is on, got %d", c.Server.RateLimitBurst)
	}

	// gRPC
	if c.GRPC.Enabled {
		if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
			return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
		}
		if c.GRPC.Port == c.Server.Port {
			return fmt.Errorf("config: grpc.port must differ from server.port (%d)", c.Server.Port)
		}
		if c.GRPC.MaxRecvMsgSize < 0 {
			return fmt.Errorf("config: grpc.max_recv_msg_size must be ≥ 0, got %d", c.GRPC.MaxRecvMsgSize)
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	// Redis
	if c.Redis.Enabled {
		switch c.Redis.Mode {
		case "standalone", "cluster":
		default:
			return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|cluster", c.Redis.Mode)
		}
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			return fmt.Errorf("config: postgres.host is required")
		}
		if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
			return fmt.Errorf("config: postgres.port %d is out of range [1, 65535]", c.Postgres.Port)
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("config: postgres.database is required")
		}
		switch c.Postgres.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("config: postgres.ssl_mode %q is invalid", c.Postgres.SSLMode)
		}
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}
	switch c.Kafka.AutoOffsetReset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("config: kafka.auto_offset_reset %q is invalid; expected earliest|latest", c.Kafka.AutoOffsetReset)
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
		if c.MinIO.ResultExpiryDays < 1 {
			return fmt.Errorf("config: minio.result_expiry_days must be ≥ 1, got %d", c.MinIO.ResultExpiryDays)
		}
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("config: worker.max_retries must be ≥ 0, got %d", c.Worker.MaxRetries)
	}

	// Depict
	if !knownHydrogenDisplay(c.Depict.HydrogenDisplay) {
		return fmt.Errorf("config: depict.hydrogen_display %q is invalid", c.Depict.HydrogenDisplay)
	}
	switch c.Depict.Dative {
	case "always", "metals", "never":
	default:
		return fmt.Errorf("config: depict.dative %q is invalid; expected always|metals|never", c.Depict.Dative)
	}
	if c.Depict.MaxAtoms < 0 {
		return fmt.Errorf("config: depict.max_atoms must be ≥ 0, got %d", c.Depict.MaxAtoms)
	}
	if c.Depict.CacheEnabled && !c.Redis.Enabled {
		return fmt.Errorf("config: depict.cache_enabled requires redis.enabled")
	}

	return nil
}

func knownHydrogenDisplay(name string) bool {
	for _, h := range molecule.HydrogenDisplays() {
		if name == h.String() {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
