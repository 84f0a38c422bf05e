package config

import (
	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
)

const JoinPageServiceName = "mandarin-join-page"

type JoinPageConfig struct {
	Dir  string
	File string
	Port string
}

func NewJoinPageConfig() *JoinPageConfig {
	return &JoinPageConfig{
		Dir:  utils.GetEnvTrimmedOrDefault("JOIN_PAGE_DIR", "public"),
		File: utils.GetEnvTrimmedOrDefault("JOIN_PAGE_FILE", "trip-join.html"),
		Port: utils.GetEnvTrimmedOrDefault("JOIN_PAGE_PORT", utils.GetEnvTrimmedOrDefault("PORT", "3000")),
	}
}

// LoadJoinPageConfiguration prepares the static join-page server. It needs
// no database, cache or waitlist store.
func LoadJoinPageConfiguration(logger *log.Logger) (*ApplicationConfig, *JoinPageConfig, error) {
	InitializeEnvFile(logger)

	tracingShutdown, err := SetupTracing(logger, JoinPageServiceName)
	if err != nil {
		return nil, nil, err
	}

	appConfig := NewAppConfig()
	pageConfig := NewJoinPageConfig()

	routerService := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests:     appConfig.RateLimitRequests,
		RateLimitWindow:       appConfig.RateLimitWindow,
		RequestTimeout:        appConfig.RequestTimeout,
		Port:                  pageConfig.Port,
		DefaultAllowedOrigins: "*",
		ServiceName:           JoinPageServiceName,
	})

	logger.Info("Join page configuration loaded", "dir", pageConfig.Dir, "file", pageConfig.File, "port", pageConfig.Port)

	return &ApplicationConfig{
		RouterService:   routerService,
		Logger:          logger,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}, pageConfig, nil
}
