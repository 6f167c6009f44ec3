// Package api wires the HTTP surface: router, middleware, handlers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Logger    *slog.Logger
	Auth      *mw.Auth
	RateLimit *mw.RateLimiter

	HealthHandler http.HandlerFunc

	CreateProject http.HandlerFunc
	ListProjects  http.HandlerFunc
	GetProject    http.HandlerFunc
	UpdateProject http.HandlerFunc
	DeleteProject http.HandlerFunc

	CreateCapture  http.HandlerFunc
	ListCaptures   http.HandlerFunc
	GetCapture     http.HandlerFunc
	UpdateCapture  http.HandlerFunc
	DeleteCapture  http.HandlerFunc
	AnalyzeCapture http.HandlerFunc

	CreateTruthCheck http.HandlerFunc
	GetTruthCheck    http.HandlerFunc
	RetryTruthCheck  http.HandlerFunc

	EnqueueJob http.HandlerFunc
	PollJob    http.HandlerFunc

	CreateBrief http.HandlerFunc
	ListBriefs  http.HandlerFunc
	GetBrief    http.HandlerFunc
	DeleteBrief http.HandlerFunc
	AddSlide    http.HandlerFunc
	RemoveSlide http.HandlerFunc

	ListMoments http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger(deps.Logger))
	r.Use(mw.Recovery(deps.Logger))

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/projects", orNotImplemented(deps.CreateProject))
		r.Get("/api/v1/projects", orNotImplemented(deps.ListProjects))
		r.Get("/api/v1/projects/{projectID}", orNotImplemented(deps.GetProject))
		r.Patch("/api/v1/projects/{projectID}", orNotImplemented(deps.UpdateProject))
		r.Delete("/api/v1/projects/{projectID}", orNotImplemented(deps.DeleteProject))

		r.Post("/api/v1/captures", orNotImplemented(deps.CreateCapture))
		r.Get("/api/v1/captures", orNotImplemented(deps.ListCaptures))
		r.Get("/api/v1/captures/{captureID}", orNotImplemented(deps.GetCapture))
		r.Patch("/api/v1/captures/{captureID}", orNotImplemented(deps.UpdateCapture))
		r.Delete("/api/v1/captures/{captureID}", orNotImplemented(deps.DeleteCapture))
		r.Post("/api/v1/captures/{captureID}/analyze", orNotImplemented(deps.AnalyzeCapture))

		r.Post("/api/v1/truth-checks", orNotImplemented(deps.CreateTruthCheck))
		r.Get("/api/v1/truth-checks/{jobID}", orNotImplemented(deps.GetTruthCheck))
		r.Post("/api/v1/truth-checks/{jobID}/retry", orNotImplemented(deps.RetryTruthCheck))

		r.Post("/api/v1/jobs", orNotImplemented(deps.EnqueueJob))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.PollJob))

		r.Post("/api/v1/briefs", orNotImplemented(deps.CreateBrief))
		r.Get("/api/v1/briefs", orNotImplemented(deps.ListBriefs))
		r.Get("/api/v1/briefs/{briefID}", orNotImplemented(deps.GetBrief))
		r.Delete("/api/v1/briefs/{briefID}", orNotImplemented(deps.DeleteBrief))
		r.Post("/api/v1/briefs/{briefID}/slides", orNotImplemented(deps.AddSlide))
		r.Delete("/api/v1/briefs/{briefID}/slides/{slideID}", orNotImplemented(deps.RemoveSlide))

		r.Get("/api/v1/moments", orNotImplemented(deps.ListMoments))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
