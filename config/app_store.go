package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/internal/models"
	"github.com/akeren/mandarin-waitlist/pkg/circuitbreaker"
	"github.com/akeren/mandarin-waitlist/pkg/constants"
	"github.com/akeren/mandarin-waitlist/pkg/postgrest"
	"github.com/akeren/mandarin-waitlist/pkg/surreal"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
)

type RESTStoreConfig struct {
	URL              string
	APIKey           string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerRecovery  time.Duration
}

type StoreConfig struct {
	Backend string
	Table   string
	// CacheTTL is how long an accepted email is remembered in the cache.
	// Zero disables it.
	CacheTTL time.Duration
	REST     RESTStoreConfig
	Surreal  surreal.Config
}

func NewStoreConfig() (*StoreConfig, error) {
	backend := strings.ToLower(utils.GetEnvTrimmedOrDefault("WAITLIST_STORE", constants.WaitlistStoreDatabase))
	if !slices.Contains(constants.WaitlistStores, backend) {
		return nil, fmt.Errorf("invalid WAITLIST_STORE %q (allowed: %s)", backend, strings.Join(constants.WaitlistStores, ", "))
	}

	return &StoreConfig{
		Backend:  backend,
		Table:    utils.GetEnvTrimmedOrDefault("WAITLIST_TABLE", models.WaitlistTableName),
		CacheTTL: optionalDurationFromEnv("WAITLIST_CACHE_TTL", 24*time.Hour),
		REST: RESTStoreConfig{
			URL:              utils.GetEnvUnquoted("WAITLIST_REST_URL"),
			APIKey:           utils.GetEnvUnquoted("WAITLIST_REST_API_KEY"),
			Timeout:          utils.EnvPositiveDuration("WAITLIST_REST_TIMEOUT", 10*time.Second),
			BreakerThreshold: utils.EnvPositiveInt("WAITLIST_BREAKER_THRESHOLD", 5),
			BreakerRecovery:  utils.EnvPositiveDuration("WAITLIST_BREAKER_RECOVERY", 30*time.Second),
		},
		Surreal: surreal.Config{
			Endpoint:  utils.GetEnvTrimmedOrDefault("SURREAL_URL", "ws://localhost:8000"),
			Username:  utils.GetEnvUnquoted("SURREAL_USER"),
			Password:  utils.GetEnvUnquoted("SURREAL_PASSWORD"),
			Namespace: utils.GetEnvTrimmedOrDefault("SURREAL_NAMESPACE", "mandarin"),
			Database:  utils.GetEnvTrimmedOrDefault("SURREAL_DATABASE", "waitlist"),
		},
	}, nil
}

func (sc *StoreConfig) NeedsDatabase() bool {
	return sc.Backend == constants.WaitlistStoreDatabase
}

// NewRESTClient builds the hosted-store client behind a circuit breaker that
// only counts transport faults and 5xx answers.
func (sc *StoreConfig) NewRESTClient(logger *log.Logger) (*postgrest.Client, error) {
	if sc.REST.URL == "" {
		return nil, fmt.Errorf("WAITLIST_REST_URL is required when WAITLIST_STORE=%s", constants.WaitlistStoreREST)
	}

	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
		Name:             "waitlist-rest",
		FailureThreshold: sc.REST.BreakerThreshold,
		RecoveryTimeout:  sc.REST.BreakerRecovery,
		SuccessThreshold: 1,
		IsFailure: func(err error) bool {
			return !postgrest.IsServerRejection(err)
		},
		OnStateChange: func(name string, from, to circuitbreaker.CircuitState) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	client, err := postgrest.New(postgrest.Config{
		URL:     sc.REST.URL,
		APIKey:  sc.REST.APIKey,
		Timeout: sc.REST.Timeout,
		Breaker: breaker,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Waitlist REST store configured", "table", sc.Table, "timeout", sc.REST.Timeout)
	return client, nil
}

// NewSurrealClient connects and makes sure email is unique in the table, so
// duplicate joins surface as index violations.
func (sc *StoreConfig) NewSurrealClient(ctx context.Context, logger *log.Logger) (*surreal.Client, error) {
	client, err := surreal.Connect(ctx, sc.Surreal)
	if err != nil {
		logger.Error("Failed to connect to SurrealDB", "endpoint", sc.Surreal.Endpoint, "error", err)
		return nil, err
	}

	if err := client.EnsureUniqueIndex(ctx, sc.Table, "email"); err != nil {
		_ = client.Close()
		logger.Error("Failed to define waitlist unique index", "error", err)
		return nil, err
	}

	logger.Info("Waitlist SurrealDB store configured",
		"endpoint", sc.Surreal.Endpoint,
		"namespace", sc.Surreal.Namespace,
		"database", sc.Surreal.Database,
	)
	return client, nil
}

// optionalDurationFromEnv is utils.EnvPositiveDuration where "0" switches
// the feature off.
func optionalDurationFromEnv(key string, fallback time.Duration) time.Duration {
	if raw := utils.GetEnvTrimmed(key); raw == "0" {
		return 0
	}
	return utils.EnvPositiveDuration(key, fallback)
}
