package router

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/ratelimit"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultTimeoutDuration applies when RouterConfig.RequestTimeout is unset.
const DefaultTimeoutDuration = 30 * time.Second

// Cache is the subset of the application cache the router needs to decide
// between the Redis and in-memory limiters.
type Cache interface {
	Ping(ctx context.Context) error
}

type RouterService struct {
	engine          *gin.Engine
	server          *http.Server
	logger          *log.Logger
	metricsRegistry *prometheus.Registry
	port            string
	requestTimeout  time.Duration

	rateLimiter       ratelimit.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
	// fallback owns requests no route matched, when set.
	fallback *RESTController
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	// Port overrides APP_PORT so both binaries can share one environment.
	Port string
	// DefaultAllowedOrigins applies when CORS_ALLOWED_ORIGIN is unset.
	DefaultAllowedOrigins string
	// ServiceName names the otelgin spans; OTEL_SERVICE_NAME wins.
	ServiceName string
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode := utils.GetEnvTrimmed("GIN_MODE"); mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	timeout := routerConfig.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeoutDuration
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName(routerConfig.ServiceName)))
		logger.Info("Tracing middleware enabled")
	}

	configureTrustedProxies(engine, logger, os.Getenv("TRUSTED_PROXIES"))

	rs := &RouterService{
		engine:                 engine,
		logger:                 logger,
		port:                   strings.TrimSpace(routerConfig.Port),
		requestTimeout:         timeout,
		rateLimitRequests:      routerConfig.RateLimitRequests,
		rateLimitWindow:        routerConfig.RateLimitWindow,
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.initRateLimiting(cache)
	rs.mountMetrics()

	cors := newCORSPolicy(utils.GetEnvTrimmedOrDefault("CORS_ALLOWED_ORIGIN", routerConfig.DefaultAllowedOrigins))

	engine.Use(
		securityHeadersMiddleware(hstsFromEnv()),
		maxBodySizeMiddleware(maxBodyBytesFromEnv()),
		rs.corsMiddleware(cors),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	engine.NoRoute(rs.routeNotFound)

	engine.NoMethod(func(c *gin.Context) {
		rs.logger.WithCorrelationID(c.Request.Context()).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(http.StatusMethodNotAllowed, "Method not allowed", nil).ToJSON())
	})

	// Handlers run on the request goroutine, so the server timeouts are what
	// actually bound a slow request.
	rs.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "request_timeout", timeout)
	return rs
}

func (routerService *RouterService) routeNotFound(c *gin.Context) {
	routerService.logger.WithCorrelationID(c.Request.Context()).Warn("Route not found", "path", c.Request.URL.Path)
	c.JSON(http.StatusNotFound, NotFoundResult("Route not found").ToJSON())
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
		"handlers", controller.handlerCount,
	)
}

// RunHTTPServer blocks until the listener fails or Shutdown is called.
// The port comes from RouterConfig.Port, then APP_PORT, then 8080.
func (routerService *RouterService) RunHTTPServer() error {
	port := routerService.port
	if port == "" {
		port = utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")
	}
	routerService.server.Addr = ":" + port

	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	err := routerService.server.ListenAndServe()
	if err == nil || err == http.ErrServerClosed {
		return nil
	}

	routerService.logger.Error("HTTP server stopped", "error", err)
	return fmt.Errorf("failed to start HTTP server: %w", err)
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server")
	return routerService.server.Shutdown(ctx)
}

func (routerService *RouterService) Cleanup() {
	if routerService.rateLimiter == nil {
		return
	}
	if err := routerService.rateLimiter.Close(); err != nil {
		routerService.logger.Error("Failed to close rate limiter", "error", err)
	}
}
