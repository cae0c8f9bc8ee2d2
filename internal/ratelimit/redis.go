package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"finadvisor/internal/models"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces limiter counters in a shared Redis instance.
const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed window limiter backed by Redis, for deployments
// running multiple replicas behind one load balancer. Each window is a
// counter keyed by client: INCR bumps it and ExpireNX stamps the window
// expiry exactly once, so the window always ends relative to its first
// request. Denied requests push the stored counter past the limit but never
// touch the expiry, which keeps admissions per window capped at the limit.
//
// The limiter fails open: if Redis is unreachable the request is admitted
// and a warning is logged. Throttling is protective, not load-bearing.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter from configuration. The
// connection is established lazily on the first Allow call.
func NewRedisLimiter(cfg models.RateLimitConfig) *RedisLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	return &RedisLimiter{
		client: client,
		max:    cfg.MaxRequests,
		window: cfg.Window,
	}
}

// Allow admits or denies a request for key within the current window.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, Info) {
	redisKey := redisKeyPrefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, r.window)
	pttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("Rate limit store unavailable, admitting request",
			"key", key,
			"error", err,
		)
		return true, Info{
			Limit:     r.max,
			Remaining: r.max,
			ResetAt:   time.Now().Add(r.window),
		}
	}

	now := time.Now()
	resetAt := now.Add(r.window)
	if ttl := pttl.Val(); ttl > 0 {
		resetAt = now.Add(ttl)
	}

	count := incr.Val()
	if count > int64(r.max) {
		return false, Info{
			Limit:      r.max,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	return true, Info{
		Limit:     r.max,
		Remaining: r.max - int(count),
		ResetAt:   resetAt,
	}
}

// Close releases the Redis connection pool.
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
