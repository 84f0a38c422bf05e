package waitlist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/internal/models"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
)

const acceptedKeyPrefix = "waitlist:accepted:"

var errRecentlyAccepted = apperrors.NewConflictError("email accepted recently", nil)

// EntryCache is the slice of the application cache the waitlist needs.
// Get returns ("", nil) for a missing key.
type EntryCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// cachedRepository remembers accepted emails so a resubmission skips the
// store round trip. Cache faults fall through to the store.
type cachedRepository struct {
	inner  WaitlistRepository
	cache  EntryCache
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedRepository(inner WaitlistRepository, cache EntryCache, ttl time.Duration, logger *log.Logger) WaitlistRepository {
	if cache == nil || ttl <= 0 {
		return inner
	}
	return &cachedRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedRepository) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	logger := log.GetLoggerInstanceFromContext(ctx, r.logger)
	key := acceptedKey(entry.Email)

	if hit, err := r.cache.Get(ctx, key); err != nil {
		logger.Warn("Waitlist cache lookup failed", "error", err)
	} else if hit != "" {
		return newUniqueViolation(errRecentlyAccepted)
	}

	err := r.inner.Insert(ctx, entry)
	if err != nil && !IsUniqueViolation(err) {
		return err
	}

	if setErr := r.cache.Set(ctx, key, "1", r.ttl); setErr != nil {
		logger.Warn("Waitlist cache write failed", "error", setErr)
	}
	return err
}

func (r *cachedRepository) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Keys carry a digest so raw addresses never land in the cache.
func acceptedKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return acceptedKeyPrefix + hex.EncodeToString(sum[:])
}
