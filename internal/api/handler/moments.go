package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/cache"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

const (
	defaultMomentWindow = 7 * 24 * time.Hour
	defaultMomentLimit  = 50
	momentsCacheTTL     = time.Minute
)

// NewListMomentsHandler returns an http.HandlerFunc for GET /api/v1/moments.
// Moments are global, not scoped per user; the feed is what the whole
// capture stream has surfaced lately. Results are cached per window for a
// minute since every dashboard polls the same feed. The cache may be nil.
func NewListMomentsHandler(st store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().Add(-defaultMomentWindow)
		if v := r.URL.Query().Get("since"); v != "" {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"since must be a valid RFC3339 timestamp", nil)
				return
			}
			since = parsed
		}

		limit := defaultMomentLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}

		// Truncating keeps the key stable across polls inside the TTL.
		window := fmt.Sprintf("%d:%d", since.Truncate(time.Minute).Unix(), limit)
		if c != nil {
			if raw, found, err := c.Get(r.Context(), cache.MomentsKey(window)); err == nil && found {
				response.JSON(w, json.RawMessage(raw))
				return
			}
		}

		moments, err := st.ListMoments(r.Context(), since, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list moments", nil)
			return
		}
		if moments == nil {
			moments = []*models.Moment{}
		}

		if c != nil {
			if raw, err := json.Marshal(moments); err == nil {
				// Best effort; a cache outage must not fail the read.
				_ = c.Set(r.Context(), cache.MomentsKey(window), raw, momentsCacheTTL)
			}
		}

		response.JSON(w, moments)
	}
}
