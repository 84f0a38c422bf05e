package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	corsAllowedMethods = "GET, HEAD, POST, OPTIONS"
	corsAllowedHeaders = "Content-Type, Content-Length, Accept, Accept-Language, Origin, Cache-Control, X-Requested-With, X-Correlation-ID"
	defaultHSTSMaxAge  = 365 * 24 * 60 * 60
)

// configureTrustedProxies makes ClientIP use RemoteAddr unless
// TRUSTED_PROXIES lists proxy CIDRs ("*" trusts everything).
func configureTrustedProxies(engine *gin.Engine, logger *log.Logger, raw string) {
	proxies := parseTrustedProxies(raw)
	if err := engine.SetTrustedProxies(proxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; trusting no proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
		return
	}
	if proxies == nil {
		logger.Info("Trusted proxies disabled")
	}
}

func parseTrustedProxies(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}

	var proxies []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

type hstsPolicy struct {
	enabled bool
	value   string
}

// hstsFromEnv reads HSTS_ENABLED (default: on for APP_ENV production),
// HSTS_MAX_AGE and HSTS_INCLUDE_SUBDOMAINS once at startup.
func hstsFromEnv() hstsPolicy {
	env := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	enabled := utils.EnvBool("HSTS_ENABLED", env == "production" || env == "prod")

	value := "max-age=" + strconv.Itoa(utils.EnvPositiveInt("HSTS_MAX_AGE", defaultHSTSMaxAge))
	if utils.EnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}

	return hstsPolicy{enabled: enabled, value: value}
}

// applies reports whether the request reached us over HTTPS, directly or
// through a TLS-terminating proxy.
func (p hstsPolicy) applies(c *gin.Context) bool {
	if !p.enabled {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func securityHeadersMiddleware(hsts hstsPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if hsts.applies(c) {
			h.Set("Strict-Transport-Security", hsts.value)
		}
		c.Next()
	}
}

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
}

func newCORSPolicy(raw string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{})}
	for _, o := range strings.Split(raw, ",") {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) configured() bool {
	return p.anyOrigin || len(p.origins) > 0
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// corsMiddleware answers cross-origin requests from allowed origins. A
// wildcard policy sends "*" without credentials; an allow-list echoes the
// origin and permits credentials.
func (routerService *RouterService) corsMiddleware(policy corsPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !policy.allows(origin) {
			if policy.configured() {
				routerService.logger.Warn("CORS origin not allowed", "origin", origin)
			} else {
				routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set; denying cross-origin request", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		if policy.anyOrigin {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowedMethods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
