// Package handler contains the HTTP handlers for the Content Radar API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/contentradar/contentradar/internal/api/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health. The
// endpoint is public and reports the status of the database and cache.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := db.Ping(ctx); err != nil {
			dbStatus = "unreachable"
		}
		cacheStatus := "ok"
		if err := cache.Ping(ctx); err != nil {
			cacheStatus = "unreachable"
		}

		status := "ok"
		code := http.StatusOK
		if dbStatus != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else if cacheStatus != "ok" {
			// Cache outage degrades rate limiting but the API still works.
			status = "degraded"
		}

		response.JSONStatus(w, code, map[string]string{
			"status":   status,
			"database": dbStatus,
			"cache":    cacheStatus,
		})
	}
}
