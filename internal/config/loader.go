package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "DEPICT"

// envKeys lists every leaf key so that AutomaticEnv can resolve env-only
// settings during Unmarshal (viper only consults the environment for keys
// it already knows about).
var envKeys = []string{
	"server.port", "server.read_timeout", "server.write_timeout", "server.request_timeout",
	"server.max_body_size", "server.shutdown_timeout", "server.slow_threshold",
	"server.rate_limit_rps", "server.rate_limit_burst",
	"grpc.enabled", "grpc.port", "grpc.max_recv_msg_size", "grpc.graceful_timeout",
	"log.level", "log.format", "log.output_paths",
	"metrics.enabled", "metrics.namespace", "metrics.path",
	"metrics.enable_process_metrics", "metrics.enable_go_metrics",
	"redis.enabled", "redis.mode", "redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.key_prefix",
	"postgres.enabled", "postgres.host", "postgres.port", "postgres.database", "postgres.username",
	"postgres.password", "postgres.ssl_mode", "postgres.max_open_conns", "postgres.max_idle_conns",
	"postgres.conn_max_lifetime", "postgres.statement_timeout", "postgres.auto_migrate",
	"kafka.brokers", "kafka.group_id", "kafka.auto_offset_reset", "kafka.producer_retries",
	"kafka.batch_size", "kafka.write_timeout", "kafka.auto_create_topics",
	"kafka.replication_factor", "kafka.num_partitions",
	"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket",
	"minio.region", "minio.use_ssl", "minio.input_prefix", "minio.result_prefix",
	"minio.result_expiry_days",
	"worker.concurrency", "worker.max_retries", "worker.retry_backoff", "worker.handler_timeout",
	"worker.lock_ttl", "worker.health_port", "worker.source",
	"depict.hydrogen_display", "depict.dative", "depict.hydrates", "depict.sync",
	"depict.map_changes", "depict.max_atoms", "depict.cache_enabled", "depict.cache_ttl",
}

// newViper builds a pre-configured Viper instance: YAML file type, DEPICT_
// env prefix, automatic env binding, and a key replacer that maps "." → "_"
// so that nested keys like "redis.addr" resolve to "DEPICT_REDIS_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	for key, val := range boolDefaults {
		v.SetDefault(key, val)
	}
	return v
}

// Load reads the YAML file at configPath, merges any DEPICT_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from DEPICT_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	DEPICT_<SECTION>_<FIELD>   e.g.  DEPICT_REDIS_ADDR, DEPICT_DEPICT_MAX_ATOMS
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Only the log level
// and the depict defaults are safe to apply at runtime.
//
// Watch is non-blocking; viper owns the watcher goroutine.  A change that
// fails to parse or validate is reported to onError, if set, and onChange is
// not called.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Callers are expected to have called Load already.
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
