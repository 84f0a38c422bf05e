package config

import (
	"testing"
	"time"

	"github.com/akeren/mandarin-waitlist/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAutoMigrateAllowed(t *testing.T) {
	for _, env := range []string{"", "dev", "development", "local", "test", "testing", "DEV", "  Local  "} {
		t.Run("allows "+env, func(t *testing.T) {
			assert.NoError(t, ValidateAutoMigrateAllowed(env))
		})
	}

	for _, env := range []string{"prod", "production", "staging", "preprod", " Production ", "qa"} {
		t.Run("rejects "+env, func(t *testing.T) {
			assert.Error(t, ValidateAutoMigrateAllowed(env))
		})
	}
}

func TestNewStoreConfig_Defaults(t *testing.T) {
	for _, key := range []string{"WAITLIST_STORE", "WAITLIST_TABLE", "WAITLIST_REST_TIMEOUT", "SURREAL_URL", "SURREAL_NAMESPACE", "WAITLIST_CACHE_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := NewStoreConfig()
	require.NoError(t, err)

	assert.Equal(t, constants.WaitlistStoreDatabase, cfg.Backend)
	assert.Equal(t, "waitlist", cfg.Table)
	assert.Equal(t, 10*time.Second, cfg.REST.Timeout)
	assert.Equal(t, 5, cfg.REST.BreakerThreshold)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "ws://localhost:8000", cfg.Surreal.Endpoint)
	assert.Equal(t, "mandarin", cfg.Surreal.Namespace)
	assert.True(t, cfg.NeedsDatabase())
}

func TestNewStoreConfig_REST(t *testing.T) {
	t.Setenv("WAITLIST_STORE", " REST ")
	t.Setenv("WAITLIST_REST_URL", `"https://example.supabase.co"`)
	t.Setenv("WAITLIST_REST_API_KEY", "anon")
	t.Setenv("WAITLIST_REST_TIMEOUT", "2s")
	t.Setenv("WAITLIST_BREAKER_THRESHOLD", "not-a-number")

	cfg, err := NewStoreConfig()
	require.NoError(t, err)

	assert.Equal(t, constants.WaitlistStoreREST, cfg.Backend)
	assert.Equal(t, "https://example.supabase.co", cfg.REST.URL)
	assert.Equal(t, 2*time.Second, cfg.REST.Timeout)
	assert.Equal(t, 5, cfg.REST.BreakerThreshold)
	assert.False(t, cfg.NeedsDatabase())
}

func TestNewStoreConfig_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("WAITLIST_STORE", "mongo")

	_, err := NewStoreConfig()
	assert.ErrorContains(t, err, "invalid WAITLIST_STORE")
}

func TestNewRESTClient_RequiresURL(t *testing.T) {
	cfg := &StoreConfig{Backend: constants.WaitlistStoreREST}

	_, err := cfg.NewRESTClient(nil)
	assert.ErrorContains(t, err, "WAITLIST_REST_URL")
}

func TestNewJoinPageConfig(t *testing.T) {
	t.Setenv("JOIN_PAGE_DIR", "")
	t.Setenv("JOIN_PAGE_FILE", "")
	t.Setenv("JOIN_PAGE_PORT", "")
	t.Setenv("PORT", "4000")

	cfg := NewJoinPageConfig()

	assert.Equal(t, "public", cfg.Dir)
	assert.Equal(t, "trip-join.html", cfg.File)
	assert.Equal(t, "4000", cfg.Port)
}

func TestNewAppConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "42")
	t.Setenv("RATE_LIMIT_WINDOW", "-1m")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg := NewAppConfig()

	assert.Equal(t, 42, cfg.RateLimitRequests)
	assert.Equal(t, constants.DefaultRateLimitWindow(), cfg.RateLimitWindow)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestNewStoreConfig_CacheTTL(t *testing.T) {
	t.Setenv("WAITLIST_STORE", "")

	t.Setenv("WAITLIST_CACHE_TTL", "0")
	cfg, err := NewStoreConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.CacheTTL)

	t.Setenv("WAITLIST_CACHE_TTL", "90m")
	cfg, err = NewStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
}
