package monitoring

import (
	"context"
	"time"

	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/constants"
	"github.com/akeren/mandarin-waitlist/pkg/factory"
	"github.com/akeren/mandarin-waitlist/pkg/ratelimit"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Database int    `json:"database"` // 1 = healthy, 0 = unhealthy/not configured
	Cache    int    `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Store    int    `json:"store"`    // 1 = waitlist store reachable
	Backend  string `json:"store_backend"`
	Uptime   int    `json:"uptime"` // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Pinger
	store     Pinger
	backend   string
	startTime time.Time
}

func NewMonitoringController(deps Dependencies) *router.RESTController {
	ctrl := &MonitoringController{
		db:        deps.DB,
		logger:    deps.Logger,
		cache:     deps.Cache,
		store:     deps.Store,
		backend:   deps.StoreBackend,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			controller.RateLimitWith(routerService, createMonitoringRateLimiter(deps.RateLimiters))

			routerService.AddGetHandler(controller, nil, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, nil, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func createMonitoringRateLimiter(rateLimiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	if rateLimiters != nil {
		return rateLimiters.CreateRateLimiter(constants.MonitoringRequestsPerMinute, time.Minute, "monitoring")
	}

	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: constants.MonitoringRequestsPerMinute,
		Window:   time.Minute,
	})
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	return router.OKResult(ctrl.performHealthChecks(ctx, logger), "Waitlist health check completed")
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return router.OKResult("Monitoring endpoint is operational.", "Monitoring successful")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Backend: ctrl.backend,
		Uptime:  int(time.Since(ctrl.startTime).Seconds()),
	}

	status.Database = probe(ctx, logger, "Database", ctrl.databasePinger())
	status.Cache = probe(ctx, logger, "Cache", ctrl.cache)
	status.Store = probe(ctx, logger, "Waitlist store", ctrl.store)

	return status
}

func (ctrl *MonitoringController) databasePinger() Pinger {
	if ctrl.db == nil {
		return nil
	}
	return gormPinger{db: ctrl.db}
}

func probe(ctx context.Context, logger *log.Logger, name string, p Pinger) int {
	if p == nil {
		logger.Info(name + " not configured, health check skipped")
		return 0
	}

	if err := p.Ping(ctx); err != nil {
		logger.Error(name+" health check failed", "error", err)
		return 0
	}

	logger.Info(name + " health check passed")
	return 1
}

type gormPinger struct {
	db *gorm.DB
}

func (g gormPinger) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
