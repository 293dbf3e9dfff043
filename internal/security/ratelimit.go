package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a submission from the given client key (normally
// an IP address) is allowed right now. Implementations must be safe for
// concurrent use: a burst of simultaneous requests from one key must never
// be admitted past the limit.
type Limiter interface {
	Allow(key string) bool
}

// MemoryLimiter is an in-memory sliding-window limiter. State lives only in
// this process: counters start empty at boot and throttling is best-effort,
// not a durable guarantee.
type MemoryLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter allowing limit requests per
// key per window and starts a background janitor that evicts idle keys.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	rl := newMemoryLimiter(limit, window, time.Now)
	go rl.janitor()
	return rl
}

// newMemoryLimiter is the janitor-free constructor used by tests, which
// inject a fake clock instead.
func newMemoryLimiter(limit int, window time.Duration, now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      now,
	}
}

// Allow records and admits the request unless the key already has limit
// requests inside the window. The check and the append happen under one
// lock so interleaved requests cannot both observe the same count.
func (rl *MemoryLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)

	var fresh []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.requests[key] = fresh
		return false
	}

	rl.requests[key] = append(fresh, now)
	return true
}

// Remaining returns how many requests the key has left in the current window.
func (rl *MemoryLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.window)
	count := 0
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			count++
		}
	}

	if count >= rl.limit {
		return 0
	}
	return rl.limit - count
}

// janitor periodically drops keys whose requests have all aged out.
func (rl *MemoryLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		windowStart := rl.now().Add(-rl.window)
		for key, times := range rl.requests {
			var fresh []time.Time
			for _, t := range times {
				if t.After(windowStart) {
					fresh = append(fresh, t)
				}
			}
			if len(fresh) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = fresh
			}
		}
		rl.mu.Unlock()
	}
}

// RedisLimiter is a fixed-window limiter backed by Redis, for deployments
// that run more than one instance behind a load balancer. INCR+EXPIRE keeps
// the count atomic across instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow increments the key's window counter and admits the request while
// the counter is within the limit. If Redis is unreachable the request is
// admitted: losing throttling is preferable to losing submissions.
func (rl *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := "formlimit:" + key

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Warn("rate limiter redis unavailable, admitting request", "error", err)
		return true
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.logger.Warn("failed to set rate limit window expiry", "key", key, "error", err)
		}
	}

	return count <= int64(rl.limit)
}
