package config

import (
	"context"
	"time"

	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/internal/models"
	"github.com/akeren/mandarin-waitlist/pkg/constants"
	"github.com/akeren/mandarin-waitlist/pkg/postgrest"
	"github.com/akeren/mandarin-waitlist/pkg/surreal"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	Stores          *StoreClients
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: utils.EnvPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:   utils.EnvPositiveDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:    utils.EnvPositiveDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// StoreClients holds the client for the configured waitlist backend. Only
// the member matching Config.Backend is set; DB is also set for the
// database backend.
type StoreClients struct {
	Config  *StoreConfig
	DB      *gorm.DB
	REST    *postgrest.Client
	Surreal *surreal.Client
}

func OpenStoreClients(ctx context.Context, logger *log.Logger, cfg *StoreConfig) (*StoreClients, error) {
	clients := &StoreClients{Config: cfg}

	switch cfg.Backend {
	case constants.WaitlistStoreREST:
		client, err := cfg.NewRESTClient(logger)
		if err != nil {
			return nil, err
		}
		clients.REST = client
	case constants.WaitlistStoreSurreal:
		client, err := cfg.NewSurrealClient(ctx, logger)
		if err != nil {
			return nil, err
		}
		clients.Surreal = client
	default:
		db, err := NewDatabase(logger, &DBConfig{})
		if err != nil {
			return nil, err
		}
		clients.DB = db
	}

	logger.Info("Waitlist store selected", "backend", cfg.Backend, "table", cfg.Table)
	return clients, nil
}

func (sc *StoreClients) Close(logger *log.Logger) {
	if sc == nil {
		return
	}
	if sc.DB != nil {
		CloseDatabase(sc.DB, logger)
	}
	if sc.Surreal != nil {
		if err := sc.Surreal.Close(); err != nil {
			logger.Error("Failed to close SurrealDB connection", "error", err)
		}
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	ac.Stores.Close(ac.Logger)

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	storeCfg, err := NewStoreConfig()
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger, utils.DefaultServiceName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := OpenStoreClients(ctx, logger, storeCfg)
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if stores.DB == nil {
			logger.Warn("--auto-migrate ignored: waitlist store is not the SQL database", "backend", storeCfg.Backend)
		} else if err := AutoMigrate(logger, stores.DB, models.ModelRegistry...); err != nil {
			stores.Close(logger)
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
		ServiceName:       utils.DefaultServiceName,
	})

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              stores.DB,
		Stores:          stores,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}, nil
}

// Serve runs the HTTP server until ctx is cancelled or the listener fails,
// then drains in-flight requests for up to drain and releases every client.
func (ac *ApplicationConfig) Serve(ctx context.Context, drain time.Duration) error {
	defer ac.Cleanup()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- ac.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	ac.Logger.Info("Shutdown signal received", "drain", drain)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	if err := ac.RouterService.Shutdown(shutdownCtx); err != nil {
		ac.Logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	ac.Logger.Info("HTTP server drained")
	return nil
}
