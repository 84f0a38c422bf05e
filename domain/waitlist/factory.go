package waitlist

import (
	"fmt"
	"time"

	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/constants"
	"github.com/akeren/mandarin-waitlist/pkg/factory"
	"github.com/akeren/mandarin-waitlist/pkg/postgrest"
	"github.com/akeren/mandarin-waitlist/pkg/surreal"
	"gorm.io/gorm"
)

// StoreBackends carries whichever store clients the configuration built.
// Only the one named by Kind is used. Cache, when set, fronts it.
type StoreBackends struct {
	Kind     string
	Table    string
	DB       *gorm.DB
	REST     *postgrest.Client
	Surreal  *surreal.Client
	Cache    EntryCache
	CacheTTL time.Duration
	Logger   *log.Logger
}

func NewRepository(b StoreBackends) (WaitlistRepository, error) {
	repository, err := newStoreRepository(b)
	if err != nil {
		return nil, err
	}
	return NewCachedRepository(repository, b.Cache, b.CacheTTL, b.Logger), nil
}

func newStoreRepository(b StoreBackends) (WaitlistRepository, error) {
	kind := b.Kind
	if kind == "" {
		kind = constants.WaitlistStoreDatabase
	}

	switch kind {
	case constants.WaitlistStoreDatabase:
		if b.DB == nil {
			return nil, fmt.Errorf("waitlist store %q: %w", kind, ErrStoreNotConfigured)
		}
		return NewWaitlistRepository(b.DB, b.Table), nil
	case constants.WaitlistStoreREST:
		if b.REST == nil {
			return nil, fmt.Errorf("waitlist store %q: %w", kind, ErrStoreNotConfigured)
		}
		return NewRemoteStore(b.REST, b.Table), nil
	case constants.WaitlistStoreSurreal:
		if b.Surreal == nil {
			return nil, fmt.Errorf("waitlist store %q: %w", kind, ErrStoreNotConfigured)
		}
		return NewSurrealStore(b.Surreal, b.Table), nil
	default:
		return nil, fmt.Errorf("unknown waitlist store %q", kind)
	}
}

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	repository   WaitlistRepository
	logger       *log.Logger
	rateLimiters factory.RateLimiterFactory
}

func NewWaitlistServiceFactory(repository WaitlistRepository, logger *log.Logger, rateLimiters factory.RateLimiterFactory) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		repository:   repository,
		logger:       logger,
		rateLimiters: rateLimiters,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return NewWaitlistService(f.logger, f.repository)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.repository, f.logger, f.rateLimiters)
}
