package router

import (
	"fmt"
	"net/http"
	"path"

	"github.com/akeren/mandarin-waitlist/pkg/ratelimit"
)

// RESTController groups handlers under one mount point. Every route the
// engine serves must be registered through a controller; the rate-limit
// middleware answers 404 for anything else.
type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return NewVersionedRESTController(name, "", mountPoint, prepare)
}

// NewVersionedRESTController mounts the controller under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanRoute(version, mountPoint),
		version:    version,
		prepare:    prepare,
	}
}

// cleanRoute joins segments into an absolute route without a trailing slash.
// path.Clean keeps gin wildcards such as :name and *file intact.
func cleanRoute(segments ...string) string {
	return path.Clean("/" + path.Join(segments...))
}

// fallbackRouteKey binds the fallback handler's limiter. It cannot collide
// with routeKey output, which always holds a method prefix.
const fallbackRouteKey = "*fallback"

func routeKey(route, method string) string {
	return method + "-" + route
}

// RateLimitWith applies limiter to every handler of the controller that has
// no handler-level limiter of its own.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	routerService.bindOverrideRateLimiter(controller.mountPoint, limiter)
	return controller
}

func (routerService *RouterService) bindOverrideRateLimiter(key string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}
	if _, exists := routerService.rateLimitOverrides[key]; exists {
		panic(fmt.Sprintf("rate limiter already registered for %q", key))
	}
	routerService.rateLimitOverrides[key] = limiter
}

func (routerService *RouterService) registerRoute(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	method, relativePath string,
	handlers []MiddlewareFunc,
) {
	route := cleanRoute(controller.mountPoint, relativePath)
	key := routeKey(route, method)

	if other, exists := routerService.handlerToControllerMap[key]; exists {
		panic(fmt.Sprintf("%s %s is already registered by controller %q", method, route, other.name))
	}

	routerService.handlerToControllerMap[key] = controller
	routerService.bindOverrideRateLimiter(key, limiter)
	routerService.engine.Handle(method, route, handlers...)
	controller.handlerCount++

	routerService.logger.Debug("Handler registered", "method", method, "path", route)
}

// envelopeHandler adapts a HandlerFunction to gin, writing its result as
// the JSON envelope.
func envelopeHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			result = InternalServerErrorResult("Handler returned no result")
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.registerRoute(controller, limiter, http.MethodPost, relativePath, append(middlewares, envelopeHandler(handler)))
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.registerRoute(controller, limiter, http.MethodGet, relativePath, append(middlewares, envelopeHandler(handler)))
}

func (routerService *RouterService) AddHeadHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.registerRoute(controller, limiter, http.MethodHead, relativePath, append(middlewares, envelopeHandler(handler)))
}

// AddRawGetHandler mounts a handler that writes its own response (files,
// fixed-shape JSON) instead of the envelope. It still goes through
// controller mapping and rate limiting.
func (routerService *RouterService) AddRawGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler MiddlewareFunc, middlewares ...MiddlewareFunc) {
	routerService.registerRoute(controller, limiter, http.MethodGet, relativePath, append(middlewares, handler))
}

// SetFallbackHandler hands GET and HEAD requests that match no route to
// handler, which answers them itself (a static site root, typically).
// Other methods keep the JSON 404. Only one fallback may be set.
func (routerService *RouterService) SetFallbackHandler(controller *RESTController, limiter ratelimit.RateLimiter, handler MiddlewareFunc) {
	if routerService.fallback != nil {
		panic(fmt.Sprintf("fallback handler is already registered by controller %q", routerService.fallback.name))
	}

	routerService.fallback = controller
	routerService.bindOverrideRateLimiter(fallbackRouteKey, limiter)
	routerService.engine.NoRoute(func(c *RequestContext) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			routerService.routeNotFound(c)
			return
		}
		handler(c)
	})
	controller.handlerCount++

	routerService.logger.Debug("Fallback handler registered", "controller", controller.name)
}
