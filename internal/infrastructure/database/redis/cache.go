package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// nullMarker is stored when a loader yields nil so repeated misses stay cheap.
const nullMarker = "__null__"

// Cache is a JSON value cache keyed under a common prefix.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// GetOrSet fills dest from the cache or from loader, collapsing
	// concurrent loads of the same key into one call.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	// GetOrLoad is GetOrSet that also reports where the value came from.
	GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) (Source, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (s *jsonSerializer) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (s *jsonSerializer) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type redisCache struct {
	client       *Client
	logger       logging.Logger
	prefix       string
	defaultTTL   time.Duration
	jitter       float64
	serializer   Serializer
	nullCacheTTL time.Duration
	singleflight singleflight.Group
}

type CacheOption func(*redisCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

func WithSerializer(s Serializer) CacheOption {
	return func(c *redisCache) { c.serializer = s }
}

func WithNullCacheTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.nullCacheTTL = ttl }
}

// WithJitter sets the relative TTL spread; 0 disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *redisCache) { c.jitter = fraction }
}

// NewRedisCache builds a Cache over client.  Keys default to the "depict:"
// prefix and a 15 minute TTL with +/-10% jitter.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	c := &redisCache{
		client:       client,
		logger:       log,
		prefix:       "depict:",
		defaultTTL:   15 * time.Minute,
		jitter:       0.1,
		serializer:   &jsonSerializer{},
		nullCacheTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 || c.jitter == 0 {
		return ttl
	}
	jitter := float64(ttl) * c.jitter * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if string(data) == nullMarker {
		return ErrCacheMiss
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return ErrSerializationFailed.WithCause(err).WithDetail(key)
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err).WithDetail(key)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.fullKey(k)
	}
	return c.client.Del(ctx, fullKeys...).Err()
}

// Source says where GetOrLoad obtained its value.  An error paired with
// SourceCache is a cache failure; with SourceLoader or SourceShared it came
// from the loader.
type Source int

const (
	// SourceCache means the value was read from Redis.
	SourceCache Source = iota
	// SourceLoader means this call ran the loader.
	SourceLoader
	// SourceShared means a concurrent call for the same key ran the loader
	// and this call received its result.
	SourceShared
)

func (s Source) String() string {
	switch s {
	case SourceLoader:
		return "loader"
	case SourceShared:
		return "shared"
	default:
		return "cache"
	}
}

func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	_, err := c.GetOrLoad(ctx, key, dest, ttl, loader)
	return err
}

func (c *redisCache) GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) (Source, error) {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return SourceCache, nil
	}
	if err != ErrCacheMiss {
		return SourceCache, err
	}

	ran := false
	val, err, _ := c.singleflight.Do(key, func() (interface{}, error) {
		ran = true
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if v == nil {
			if setErr := c.client.Set(ctx, c.fullKey(key), nullMarker, c.nullCacheTTL).Err(); setErr != nil {
				c.logger.Warn("Failed to cache null marker", logging.String("key", key), logging.Err(setErr))
			}
			return nil, nil
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("Failed to set cache in GetOrSet", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	src := SourceShared
	if ran {
		src = SourceLoader
	}
	if err != nil {
		return src, err
	}
	if val == nil {
		return src, ErrCacheMiss
	}

	// Round-trip through the serializer so dest never aliases the shared value.
	data, err := c.serializer.Marshal(val)
	if err != nil {
		return src, ErrSerializationFailed.WithCause(err).WithDetail(key)
	}
	return src, c.serializer.Unmarshal(data, dest)
}

func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	var cursor uint64
	match := c.fullKey(prefix) + "*"
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += int64(len(keys))
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

//Personal.AI order the ending
