package config

import (
	"context"
	"time"

	"github.com/akeren/mandarin-waitlist/internal/log"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	pkgredis "github.com/akeren/mandarin-waitlist/pkg/redis"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
)

// Cache backs the accepted-email cache and, through the Redis client it
// wraps, the distributed rate limiter.
type Cache interface {
	// Get returns ("", nil) on a miss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value for ttl; zero means no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = apperrors.NewUnavailableError("cache host is not configured", nil)

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: utils.GetEnvUnquoted("REDIS_PASSWORD"),
		DB:       utils.EnvPositiveInt("REDIS_DB", 0),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Redis connected", "host", cc.Host, "port", cc.Port, "db", cc.DB)
	return cache, nil
}

// NewCacheOrNil treats Redis as optional: without it the rate limiter runs
// in memory and the accepted-email cache is off.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Redis not configured; running without cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Redis unavailable; running without cache", "error", err)
		return nil
	}
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}
	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}
	logger.Info("Cache connection closed")
	return nil
}
