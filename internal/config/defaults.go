package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerRequestTimeout  = 20 * time.Second
	DefaultServerMaxBodySize     = 4 << 20
	DefaultServerShutdownTimeout = 30 * time.Second
	DefaultServerSlowThreshold   = 2 * time.Second
	DefaultServerRateLimitBurst  = 20

	DefaultGRPCPort            = 9090
	DefaultGRPCMaxRecvMsgSize  = 16 << 20
	DefaultGRPCGracefulTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "depict"
	DefaultMetricsPath      = "/metrics"

	DefaultRedisMode      = "standalone"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "depict:"

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDatabase = "depict"
	DefaultPostgresUsername = "depict"
	DefaultPostgresSSLMode  = "disable"

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaGroupID         = "depict-worker"
	DefaultKafkaAutoOffsetReset = "earliest"
	DefaultKafkaNumPartitions   = 6
	DefaultKafkaReplication     = 1

	DefaultMinIOEndpoint     = "localhost:9000"
	DefaultMinIOBucket       = "depict-results"
	DefaultMinIORegion       = "us-east-1"
	DefaultMinIOInputPrefix  = "inputs/"
	DefaultMinIOResultPrefix = "results/"
	DefaultMinIOExpiryDays   = 30

	DefaultWorkerConcurrency    = 4
	DefaultWorkerMaxRetries     = 3
	DefaultWorkerRetryBackoff   = time.Second
	DefaultWorkerHandlerTimeout = 5 * time.Minute
	DefaultWorkerLockTTL        = 30 * time.Second
	DefaultWorkerHealthPort     = 8081
	DefaultWorkerSource         = "depict-worker"

	DefaultHydrogenDisplay = "smart"
	DefaultDative          = "metals"
	DefaultMaxAtoms        = 2000
	DefaultCacheTTL        = 15 * time.Minute
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the default.  Fields
// already set by the caller are left unchanged so that explicit configuration
// always wins.  Booleans cannot be told apart from an explicit false here;
// their defaults live in boolDefaults.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultServerRequestTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.SlowThreshold == 0 {
		cfg.Server.SlowThreshold = DefaultServerSlowThreshold
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultServerRateLimitBurst
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}
	if cfg.GRPC.MaxRecvMsgSize == 0 {
		cfg.GRPC.MaxRecvMsgSize = DefaultGRPCMaxRecvMsgSize
	}
	if cfg.GRPC.GracefulTimeout == 0 {
		cfg.GRPC.GracefulTimeout = DefaultGRPCGracefulTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = DefaultPostgresDatabase
	}
	if cfg.Postgres.Username == "" {
		cfg.Postgres.Username = DefaultPostgresUsername
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = DefaultKafkaAutoOffsetReset
	}
	if cfg.Kafka.NumPartitions == 0 {
		cfg.Kafka.NumPartitions = DefaultKafkaNumPartitions
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = DefaultKafkaReplication
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}
	if cfg.MinIO.InputPrefix == "" {
		cfg.MinIO.InputPrefix = DefaultMinIOInputPrefix
	}
	if cfg.MinIO.ResultPrefix == "" {
		cfg.MinIO.ResultPrefix = DefaultMinIOResultPrefix
	}
	if cfg.MinIO.ResultExpiryDays == 0 {
		cfg.MinIO.ResultExpiryDays = DefaultMinIOExpiryDays
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultWorkerRetryBackoff
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = DefaultWorkerHandlerTimeout
	}
	if cfg.Worker.LockTTL == 0 {
		cfg.Worker.LockTTL = DefaultWorkerLockTTL
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}
	if cfg.Worker.Source == "" {
		cfg.Worker.Source = DefaultWorkerSource
	}

	// ── Depict ────────────────────────────────────────────────────────────────
	if cfg.Depict.HydrogenDisplay == "" {
		cfg.Depict.HydrogenDisplay = DefaultHydrogenDisplay
	}
	if cfg.Depict.Dative == "" {
		cfg.Depict.Dative = DefaultDative
	}
	if cfg.Depict.MaxAtoms == 0 {
		cfg.Depict.MaxAtoms = DefaultMaxAtoms
	}
	if cfg.Depict.CacheTTL == 0 {
		cfg.Depict.CacheTTL = DefaultCacheTTL
	}
}

// boolDefaults are the switches that default to true.  Load registers them
// with viper; NewDefaultConfig sets them directly.
var boolDefaults = map[string]bool{
	"metrics.enabled":           true,
	"metrics.enable_go_metrics": true,
	"depict.sync":               true,
	"postgres.auto_migrate":     true,
}

//Personal.AI order the ending
