package domain

import (
	"github.com/akeren/mandarin-waitlist/config"
	"github.com/akeren/mandarin-waitlist/domain/joinpage"
	"github.com/akeren/mandarin-waitlist/domain/monitoring"
	"github.com/akeren/mandarin-waitlist/domain/waitlist"
	"github.com/akeren/mandarin-waitlist/pkg/factory"
)

// StoreBackends maps the configured clients onto the waitlist store choice.
func StoreBackends(stores *config.StoreClients) waitlist.StoreBackends {
	if stores == nil {
		return waitlist.StoreBackends{}
	}
	return waitlist.StoreBackends{
		Kind:     stores.Config.Backend,
		Table:    stores.Config.Table,
		DB:       stores.DB,
		REST:     stores.REST,
		Surreal:  stores.Surreal,
		CacheTTL: stores.Config.CacheTTL,
	}
}

func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	factories := factory.NewFactoryContainer(appConfig.Cache, appConfig.Logger)

	backends := StoreBackends(appConfig.Stores)
	backends.Logger = appConfig.Logger
	if appConfig.Cache != nil {
		backends.Cache = appConfig.Cache
	}
	repository, err := waitlist.NewRepository(backends)
	if err != nil {
		return err
	}

	monitoringDeps := monitoring.Dependencies{
		DB:           appConfig.DB,
		Logger:       appConfig.Logger,
		Store:        repository,
		StoreBackend: backends.Kind,
		RateLimiters: factories.RateLimiterFactory,
	}
	if appConfig.Cache != nil {
		monitoringDeps.Cache = appConfig.Cache
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringControllerFactory(monitoringDeps).CreateController())
	appConfig.RouterService.MountController(waitlist.NewWaitlistServiceFactory(repository, appConfig.Logger, factories.RateLimiterFactory).CreateController())

	return nil
}

func SetupJoinPageDomain(appConfig *config.ApplicationConfig, pageConfig *config.JoinPageConfig) {
	appConfig.RouterService.MountController(joinpage.NewJoinPageController(joinpage.Config{
		Dir:  pageConfig.Dir,
		File: pageConfig.File,
	}, appConfig.Logger))
}
