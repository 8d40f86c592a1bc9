package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow reports whether a request with the given key may proceed.
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo contains current rate limit state for a given key.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// KeyFunc extracts the rate limit key; defaults to the client address.
	KeyFunc func(r *http.Request) string
	// SkipPaths bypass rate limiting.
	SkipPaths []string
}

// clientKey prefers the address chi's RealIP middleware resolved.
func clientKey(r *http.Request) string {
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ── Token bucket ────────────────────────────────────────────────────────────

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// TokenBucketLimiter implements RateLimiter with one in-memory token bucket
// per key.
type TokenBucketLimiter struct {
	rate            float64
	burstSize       int
	buckets         map[string]*tokenBucket
	mu              sync.RWMutex
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// NewTokenBucketLimiter creates a limiter refilling rate tokens per second up
// to burstSize.  Idle buckets are dropped every cleanupInterval.
func NewTokenBucketLimiter(rate float64, burstSize int, cleanupInterval time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		rate:            rate,
		burstSize:       burstSize,
		buckets:         make(map[string]*tokenBucket),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}
	if cleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow takes one token from key's bucket.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		bucket, exists = l.buckets[key]
		if !exists {
			bucket = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
			l.buckets[key] = bucket
		}
		l.mu.Unlock()
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.tokens += now.Sub(bucket.lastRefill).Seconds() * l.rate
	if bucket.tokens > float64(l.burstSize) {
		bucket.tokens = float64(l.burstSize)
	}
	bucket.lastRefill = now

	info := RateLimitInfo{
		Limit:   l.burstSize,
		ResetAt: now.Add(time.Duration(float64(time.Second) / l.rate)),
	}
	if bucket.tokens >= 1.0 {
		bucket.tokens--
		info.Remaining = int(bucket.tokens)
		return true, info
	}
	return false, info
}

func (l *TokenBucketLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup removes buckets that have been idle and full for a whole interval.
func (l *TokenBucketLimiter) cleanup() {
	threshold := l.now().Add(-l.cleanupInterval)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, bucket := range l.buckets {
		bucket.mu.Lock()
		if bucket.lastRefill.Before(threshold) && bucket.tokens >= float64(l.burstSize)-1 {
			delete(l.buckets, key)
		}
		bucket.mu.Unlock()
	}
}

// Stop stops the background cleanup goroutine.  It is safe to call twice.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// BucketCount returns the number of active buckets.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// ── Middleware ──────────────────────────────────────────────────────────────

// RateLimit returns middleware that answers 429 with the COMMON_007 error
// body once a client's bucket is empty.
func RateLimit(limiter RateLimiter, config RateLimitConfig) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = clientKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			allowed, info := limiter.Allow(keyFunc(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(info.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, errors.ErrCodeTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
