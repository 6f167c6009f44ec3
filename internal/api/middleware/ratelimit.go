package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/cache"
)

// RateLimiter enforces a fixed-window per-key request limit backed by Redis.
type RateLimiter struct {
	cache  cache.Cache
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter creates a rate limiter with the given per-window limit.
func NewRateLimiter(c cache.Cache, limit int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		cache:  c,
		limit:  limit,
		window: time.Minute,
		logger: logger,
	}
}

// Limit enforces the rate limit for the authenticated API key. If the cache
// is unavailable the request is allowed through.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, ok := getKeyPrefix(r)
		if !ok || prefix == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := cache.RateLimitKey(prefix)
		count, err := rl.cache.IncrWithExpiry(r.Context(), key, rl.window)
		if err != nil {
			// Fail open: a cache outage should not take the API down.
			rl.logger.Warn("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if int(count) > rl.limit {
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMITED", "Rate limit exceeded, try again later", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
