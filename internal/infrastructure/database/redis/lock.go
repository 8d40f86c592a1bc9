package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// DistributedLock is a single-owner lease on a Redis key.  The worker holds
// one per job id so redelivered jobs are not annotated twice concurrently.
type DistributedLock interface {
	Lock(ctx context.Context) error
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
	TTL(ctx context.Context) (time.Duration, error)
}

type LockFactory interface {
	NewMutex(name string, opts ...LockOption) DistributedLock
}

type LockOption func(*lockConfig)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = delay }
}

func WithRetryCount(count int) LockOption {
	return func(c *lockConfig) { c.retryCount = count }
}

func WithWatchdog(enabled bool) LockOption {
	return func(c *lockConfig) { c.watchdogEnabled = enabled }
}

func WithWatchdogInterval(interval time.Duration) LockOption {
	return func(c *lockConfig) { c.watchdogInterval = interval }
}

type lockConfig struct {
	ttl              time.Duration
	retryDelay       time.Duration
	retryCount       int
	watchdogEnabled  bool
	watchdogInterval time.Duration
}

type redisLockFactory struct {
	client *Client
	log    logging.Logger
}

func NewLockFactory(client *Client, log logging.Logger) LockFactory {
	return &redisLockFactory{
		client: client,
		log:    log,
	}
}

func (f *redisLockFactory) NewMutex(name string, opts ...LockOption) DistributedLock {
	cfg := lockConfig{
		ttl:              30 * time.Second,
		retryDelay:       100 * time.Millisecond,
		retryCount:       30,
		watchdogInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.watchdogInterval == 0 && cfg.watchdogEnabled {
		cfg.watchdogInterval = cfg.ttl / 3
	}

	return &redisMutex{
		client: f.client,
		name:   name,
		value:  generateLockValue(),
		config: cfg,
		logger: f.log,
	}
}

// Mutex Implementation

type redisMutex struct {
	client         *Client
	name           string
	value          string
	config         lockConfig
	logger         logging.Logger
	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var mutexExtendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

func (m *redisMutex) Lock(ctx context.Context) error {
	key := buildLockKey("mutex", m.name)
	for i := 0; i < m.config.retryCount; i++ {
		success, err := m.client.SetNX(ctx, key, m.value, m.config.ttl).Result()
		if err == nil && success {
			if m.config.watchdogEnabled {
				m.startWatchdog()
			}
			return nil
		}
		if err != nil && err != redis.Nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.retryDelay):
			continue
		}
	}
	return ErrLockNotAcquired
}

func (m *redisMutex) TryLock(ctx context.Context) (bool, error) {
	key := buildLockKey("mutex", m.name)

	success, err := m.client.SetNX(ctx, key, m.value, m.config.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	if success && m.config.watchdogEnabled {
		m.startWatchdog()
	}
	return success, nil
}

func (m *redisMutex) Unlock(ctx context.Context) error {
	m.stopWatchdog()
	key := buildLockKey("mutex", m.name)
	res, err := m.client.RunScript(ctx, mutexUnlockScript, []string{key}, m.value).Int64()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (m *redisMutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	key := buildLockKey("mutex", m.name)
	res, err := m.client.RunScript(ctx, mutexExtendScript, []string{key}, m.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (m *redisMutex) TTL(ctx context.Context) (time.Duration, error) {
	key := buildLockKey("mutex", m.name)
	return m.client.PTTL(ctx, key).Result()
}

func (m *redisMutex) startWatchdog() {
	ctx, cancel := context.WithCancel(context.Background())
	m.watchdogCancel = cancel
	m.watchdogDone = make(chan struct{})

	go runWatchdog(ctx, m.Extend, m.config.watchdogInterval, m.config.ttl, m.logger, m.watchdogDone)
}

func (m *redisMutex) stopWatchdog() {
	if m.watchdogCancel != nil {
		m.watchdogCancel()
		<-m.watchdogDone
		m.watchdogCancel = nil
	}
}

// Helpers

func generateLockValue() string {
	return uuid.New().String()
}

func buildLockKey(lockType, name string) string {
	return "depict:lock:" + lockType + ":" + name
}

func runWatchdog(ctx context.Context, extendFn func(context.Context, time.Duration) (bool, error), interval time.Duration, ttl time.Duration, log logging.Logger, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := extendFn(ctx, ttl)
			if err != nil {
				log.Error("Watchdog failed to extend lock", logging.Err(err))
				return
			}
			if !ok {
				log.Warn("Watchdog lost lock")
				return
			}
		}
	}
}

//Personal.AI order the ending
