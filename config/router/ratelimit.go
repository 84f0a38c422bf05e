package router

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/mandarin-waitlist/pkg/factory"
	"github.com/akeren/mandarin-waitlist/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

const cachePingTimeout = 2 * time.Second

// initRateLimiting builds the global limiter. It shares Redis with the
// application cache when the cache answers a ping, and stays in memory
// otherwise.
func (routerService *RouterService) initRateLimiting(cache Cache) {
	backend := "memory"

	if cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
		err := cache.Ping(ctx)
		cancel()

		if err != nil {
			routerService.logger.Warn("Redis unreachable; rate limiting in memory", "error", err)
			cache = nil
		} else if _, ok := cache.(factory.RedisClientProvider); ok {
			backend = "redis"
		}
	}

	limiters := factory.NewDefaultRateLimiterFactory(cache, routerService.logger)
	routerService.rateLimiter = limiters.CreateRateLimiter(routerService.rateLimitRequests, routerService.rateLimitWindow, "global")

	routerService.logger.Info("Rate limiting initialized",
		"backend", backend,
		"requests", routerService.rateLimitRequests,
		"window", routerService.rateLimitWindow,
	)
}

// limiterFor resolves the limiter for the matched route: a handler override
// beats a controller override, which beats the global limiter. Unmatched
// requests belong to the fallback controller when one is set. ok is false
// when the route was not registered through a controller.
func (routerService *RouterService) limiterFor(c *gin.Context) (limiter ratelimit.RateLimiter, ok bool) {
	key := routeKey(c.FullPath(), c.Request.Method)

	controller, found := routerService.handlerToControllerMap[key]
	if (!found || controller == nil) && c.FullPath() == "" && routerService.fallback != nil {
		controller, key, found = routerService.fallback, fallbackRouteKey, true
	}
	if !found || controller == nil {
		return nil, false
	}

	if l, found := routerService.rateLimitOverrides[key]; found {
		return l, true
	}
	if l, found := routerService.rateLimitOverrides[controller.mountPoint]; found {
		return l, true
	}
	return routerService.rateLimiter, true
}

func setRateLimitHeaders(c *gin.Context, limit int, window time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Window", window.String())
}

func retryAfterSeconds(window time.Duration) int {
	return max(1, int(math.Ceil(window.Seconds())))
}

// rateLimitMiddleware keys on the client IP. Limiter faults let the request
// through so a Redis outage does not take the API down.
func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, ok := routerService.limiterFor(c)
		if !ok {
			routerService.logger.Warn("No controller mapping for request path", "path", c.Request.URL.Path, "method", c.Request.Method)
			c.AbortWithStatusJSON(http.StatusNotFound,
				NotFoundResult("There is no handler configured to handle any resource at the path "+c.Request.URL.Path).ToJSON())
			return
		}

		if limiter == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		limit, window := limiter.GetLimitDetails()
		setRateLimitHeaders(c, limit, window)

		limited, err := limiter.IsLimited(c.Request.Context(), clientIP)
		if err != nil {
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			retryAfter := strconv.Itoa(retryAfterSeconds(window))
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.FullPath())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: retryAfter,
			}).ToJSON())
			return
		}

		c.Next()
	}
}
