package app

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blogsphere/core/internal/config"
	"github.com/blogsphere/core/internal/middleware"
	"github.com/gin-contrib/cors"
)

// corsConfig allows every origin in development or when no origins are
// configured; otherwise only the listed origin patterns.
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.IdempotenceHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Cache", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	patterns := cfg.AllowedOrigins
	if len(patterns) == 0 || cfg.IsDev() {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}
	c.AllowOriginFunc = func(origin string) bool {
		host := originHost(origin)
		for _, pattern := range patterns {
			if matchOrigin(pattern, host) {
				return true
			}
		}
		return false
	}
	return c
}

// originHost returns the host[:port] of an origin, or the origin itself
// when it does not parse as a URL.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOrigin supports exact hosts, "*.example.com" subdomains and
// "localhost:*" ports. Full origins in patterns are reduced to their host.
func matchOrigin(pattern, host string) bool {
	pattern = originHost(pattern)
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
