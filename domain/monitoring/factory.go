package monitoring

import (
	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/factory"
	"gorm.io/gorm"
)

// Dependencies are the probes behind /health. Nil members report 0.
type Dependencies struct {
	DB           *gorm.DB
	Logger       *log.Logger
	Cache        Pinger
	Store        Pinger
	StoreBackend string
	RateLimiters factory.RateLimiterFactory
}

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	deps Dependencies
}

func NewMonitoringControllerFactory(deps Dependencies) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{deps: deps}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.deps)
}
