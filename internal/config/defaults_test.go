package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultMinIOResultPrefix, cfg.MinIO.ResultPrefix)
	assert.Equal(t, DefaultWorkerLockTTL, cfg.Worker.LockTTL)
	assert.Equal(t, DefaultHydrogenDisplay, cfg.Depict.HydrogenDisplay)
	assert.Equal(t, DefaultCacheTTL, cfg.Depict.CacheTTL)
	assert.Equal(t, DefaultGRPCPort, cfg.GRPC.Port)
	assert.Equal(t, DefaultGRPCGracefulTimeout, cfg.GRPC.GracefulTimeout)
	assert.Equal(t, DefaultPostgresPort, cfg.Postgres.Port)
	assert.Equal(t, DefaultPostgresSSLMode, cfg.Postgres.SSLMode)
	// booleans are left alone
	assert.False(t, cfg.Depict.Sync)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Depict.Dative = "never"
	cfg.Kafka.Brokers = []string{"a:1", "b:2"}
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "never", cfg.Depict.Dative)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
}

func TestApplyDefaults_RateLimitBurst(t *testing.T) {
	off := &Config{}
	ApplyDefaults(off)
	assert.Zero(t, off.Server.RateLimitBurst, "no burst while rate limiting is off")

	on := &Config{}
	on.Server.RateLimitRPS = 10
	ApplyDefaults(on)
	assert.Equal(t, DefaultServerRateLimitBurst, on.Server.RateLimitBurst)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestNewDefaultConfig_BoolSwitches(t *testing.T) {
	cfg := NewDefaultConfig()
	for key, want := range boolDefaults {
		switch key {
		case "metrics.enabled":
			assert.Equal(t, want, cfg.Metrics.Enabled, key)
		case "metrics.enable_go_metrics":
			assert.Equal(t, want, cfg.Metrics.EnableGoMetrics, key)
		case "depict.sync":
			assert.Equal(t, want, cfg.Depict.Sync, key)
		case "postgres.auto_migrate":
			assert.Equal(t, want, cfg.Postgres.AutoMigrate, key)
		default:
			t.Errorf("unchecked bool default %s", key)
		}
	}
}

//Personal.AI order the ending
