package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/config"
)

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	t.Parallel()
	require.NoError(t, config.NewDefaultConfig().Validate())
}

func TestConfig_Validate_Rejections(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"port zero", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative body size", func(c *config.Config) { c.Server.MaxBodySize = -1 }, "server.max_body_size"},
		{"negative rate", func(c *config.Config) { c.Server.RateLimitRPS = -1 }, "server.rate_limit_rps"},
		{"rate without burst", func(c *config.Config) { c.Server.RateLimitRPS = 5; c.Server.RateLimitBurst = 0 }, "server.rate_limit_burst"},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "text" }, "log.format"},
		{"metrics namespace", func(c *config.Config) { c.Metrics.Namespace = "" }, "metrics.namespace"},
		{"redis mode", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Mode = "sentinel" }, "redis.mode"},
		{"redis addr", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"grpc port", func(c *config.Config) { c.GRPC.Enabled = true; c.GRPC.Port = 0 }, "grpc.port"},
		{"grpc port clash", func(c *config.Config) { c.GRPC.Enabled = true; c.GRPC.Port = c.Server.Port }, "grpc.port"},
		{"grpc message size", func(c *config.Config) { c.GRPC.Enabled = true; c.GRPC.MaxRecvMsgSize = -1 }, "grpc.max_recv_msg_size"},
		{"postgres host", func(c *config.Config) { c.Postgres.Enabled = true; c.Postgres.Host = "" }, "postgres.host"},
		{"postgres port", func(c *config.Config) { c.Postgres.Enabled = true; c.Postgres.Port = 99999 }, "postgres.port"},
		{"postgres database", func(c *config.Config) { c.Postgres.Enabled = true; c.Postgres.Database = "" }, "postgres.database"},
		{"postgres ssl mode", func(c *config.Config) { c.Postgres.Enabled = true; c.Postgres.SSLMode = "maybe" }, "postgres.ssl_mode"},
		{"kafka brokers", func(c *config.Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"kafka group", func(c *config.Config) { c.Kafka.GroupID = "" }, "kafka.group_id"},
		{"kafka offset", func(c *config.Config) { c.Kafka.AutoOffsetReset = "middle" }, "kafka.auto_offset_reset"},
		{"minio endpoint", func(c *config.Config) { c.MinIO.Enabled = true; c.MinIO.Endpoint = "" }, "minio.endpoint"},
		{"minio expiry", func(c *config.Config) { c.MinIO.Enabled = true; c.MinIO.ResultExpiryDays = -3 }, "minio.result_expiry_days"},
		{"worker concurrency", func(c *config.Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
		{"hydrogen display", func(c *config.Config) { c.Depict.HydrogenDisplay = "S" }, "depict.hydrogen_display"},
		{"dative", func(c *config.Config) { c.Depict.Dative = "sometimes" }, "depict.dative"},
		{"max atoms", func(c *config.Config) { c.Depict.MaxAtoms = -1 }, "depict.max_atoms"},
		{"cache without redis", func(c *config.Config) { c.Depict.CacheEnabled = true }, "depict.cache_enabled"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestConfig_Validate_DisabledBackendsSkipChecks(t *testing.T) {
	t.Parallel()
	cfg := config.NewDefaultConfig()
	cfg.Redis.Addr = ""
	cfg.MinIO.Endpoint = ""
	cfg.Postgres.Host = ""
	cfg.GRPC.Port = cfg.Server.Port
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Conversions(t *testing.T) {
	t.Parallel()
	cfg := config.NewDefaultConfig()
	cfg.Redis.Addr = "cache:6379"
	cfg.MinIO.AccessKey = "ak"
	cfg.MinIO.SecretKey = "sk"
	cfg.Worker.RetryBackoff = 0

	rc := cfg.RedisClientConfig()
	assert.Equal(t, "cache:6379", rc.Addr)
	assert.Empty(t, rc.ClusterAddrs)

	cfg.Redis.Mode = "cluster"
	rc = cfg.RedisClientConfig()
	assert.Empty(t, rc.Addr)
	assert.Equal(t, []string{"cache:6379"}, rc.ClusterAddrs)

	mc := cfg.MinIOClientConfig()
	assert.Equal(t, "ak", mc.AccessKeyID)
	assert.Equal(t, "sk", mc.SecretAccessKey)
	assert.Equal(t, config.DefaultMinIOBucket, mc.Bucket)
	assert.Equal(t, config.DefaultMinIOExpiryDays, mc.ResultExpiryDays)

	cc := cfg.ConsumerConfig("depict.annotate.requested")
	assert.Equal(t, []string{"depict.annotate.requested"}, cc.Topics)
	assert.Equal(t, config.DefaultKafkaGroupID, cc.GroupID)
	assert.Equal(t, config.DefaultWorkerMaxRetries, cc.RetryConfig.MaxRetries)
	assert.Equal(t, "depict.annotate.requested.dlq", cc.RetryConfig.DeadLetterTopic)

	pc := cfg.ProducerConfig()
	assert.Equal(t, cfg.Kafka.Brokers, pc.Brokers)
	assert.Equal(t, "all", pc.Acks)

	sc := cfg.ServiceConfig()
	assert.Equal(t, "smart", sc.Defaults.HydrogenDisplay)
	assert.Equal(t, "metals", sc.Defaults.Dative)
	assert.True(t, sc.Defaults.Sync)
	assert.False(t, sc.Defaults.Hydrates)
	assert.Equal(t, config.DefaultMaxAtoms, sc.MaxAtoms)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, []string{"stdout"}, lc.OutputPaths)

	assert.Equal(t, "depict", cfg.CollectorConfig().Namespace)

	cfg.Postgres.Host = "db"
	cfg.Postgres.Password = "pw"
	cfg.Postgres.MaxOpenConns = 20
	pg := cfg.PostgresClientConfig()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, config.DefaultPostgresPort, pg.Port)
	assert.Equal(t, config.DefaultPostgresDatabase, pg.Database)
	assert.Equal(t, "pw", pg.Password)
	assert.Equal(t, 20, pg.MaxOpenConns)
	assert.Equal(t, "disable", pg.SSLMode)
}

//Personal.AI order the ending
