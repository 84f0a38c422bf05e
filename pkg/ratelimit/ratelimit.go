// Package ratelimit provides per-key request limiters: a token bucket for a
// single instance and a Redis sliding window shared across instances.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultKeyPrefix = "ratelimit:"

type Logger interface {
	Error(msg string, args ...any)
}

type RateLimiter interface {
	// GetLimitDetails returns the allowance as requests per window.
	GetLimitDetails() (int, time.Duration)
	// IsLimited consumes one request for key and reports whether it is over
	// the allowance.
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyPrefix namespaces Redis keys so scoped limiters keep their own
	// counters.
	KeyPrefix string
	// Redis selects the shared limiter; nil keeps counters in memory.
	Redis  *redis.Client
	Logger Logger
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.KeyPrefix, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
