package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageLimit
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NewCreateCaptureHandler returns an http.HandlerFunc for POST /api/v1/captures.
// A capture needs a URL, raw content, or both.
func NewCreateCaptureHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Title     string   `json:"title"`
			URL       string   `json:"url"`
			Content   string   `json:"content"`
			Platform  string   `json:"platform"`
			Tags      []string `json:"tags"`
			ProjectID string   `json:"project_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		req.URL = strings.TrimSpace(req.URL)
		req.Content = strings.TrimSpace(req.Content)
		if req.URL == "" && req.Content == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"either url or content is required", nil)
			return
		}
		if req.URL != "" && !validHTTPURL(req.URL) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"url must be a valid http(s) URL", nil)
			return
		}

		var projectID *uuid.UUID
		if req.ProjectID != "" {
			id, err := uuid.Parse(req.ProjectID)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"project_id must be a valid UUID", nil)
				return
			}
			// The project must exist and belong to the caller.
			if _, err := st.GetProject(r.Context(), id, userID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					response.Error(w, http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
					return
				}
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Failed to load project", nil)
				return
			}
			projectID = &id
		}

		if req.Tags == nil {
			req.Tags = []string{}
		}
		if req.Platform == "" {
			req.Platform = "web"
		}

		capture := &models.Capture{
			ID:             uuid.New(),
			UserID:         userID,
			ProjectID:      projectID,
			Title:          req.Title,
			Content:        req.Content,
			Platform:       req.Platform,
			Tags:           req.Tags,
			AnalysisStatus: models.AnalysisStatusPending,
		}
		if req.URL != "" {
			capture.URL = &req.URL
		}

		if err := st.CreateCapture(r.Context(), capture); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create capture", nil)
			return
		}

		response.Created(w, capture)
	}
}

var validSorts = map[string]bool{
	store.SortDate:       true,
	store.SortViralScore: true,
	store.SortRelevance:  true,
}

// NewListCapturesHandler returns an http.HandlerFunc for GET /api/v1/captures.
// Supports filtering by platform, analysis_status, tag, and project_id, text
// search via q, and sorting by date, viral_score, or relevance.
func NewListCapturesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		sort := r.URL.Query().Get("sort")
		if sort != "" && !validSorts[sort] {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"sort must be one of: date, viral_score, relevance", nil)
			return
		}

		page, limit := parsePagination(r)
		filter := store.CaptureFilter{
			UserID:         userID,
			Platform:       r.URL.Query().Get("platform"),
			AnalysisStatus: r.URL.Query().Get("analysis_status"),
			Tag:            r.URL.Query().Get("tag"),
			Query:          strings.TrimSpace(r.URL.Query().Get("q")),
			Sort:           sort,
			Page:           page,
			Limit:          limit,
		}
		if v := r.URL.Query().Get("project_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"project_id must be a valid UUID", nil)
				return
			}
			filter.ProjectID = &id
		}

		captures, total, err := st.ListCaptures(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list captures", nil)
			return
		}
		if captures == nil {
			captures = []*models.Capture{}
		}

		response.Collection(w, captures, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

// NewGetCaptureHandler returns an http.HandlerFunc for GET /api/v1/captures/{captureID}.
func NewGetCaptureHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "captureID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"capture id must be a valid UUID", nil)
			return
		}

		capture, err := st.GetCapture(r.Context(), id, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Capture not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load capture", nil)
			return
		}

		response.JSON(w, capture)
	}
}

// NewUpdateCaptureHandler returns an http.HandlerFunc for PATCH /api/v1/captures/{captureID}.
// Only title, content, and tags are client-editable; analysis fields are
// owned by the worker.
func NewUpdateCaptureHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "captureID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"capture id must be a valid UUID", nil)
			return
		}

		var req struct {
			Title   *string  `json:"title"`
			Content *string  `json:"content"`
			Tags    []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var opts []store.CaptureUpdateOption
		if req.Title != nil {
			opts = append(opts, store.WithTitle(*req.Title))
		}
		if req.Content != nil {
			opts = append(opts, store.WithContent(*req.Content))
		}
		if req.Tags != nil {
			opts = append(opts, store.WithTags(req.Tags))
		}
		if len(opts) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"at least one of title, content, tags is required", nil)
			return
		}

		if err := st.UpdateCapture(r.Context(), id, userID, opts...); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Capture not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to update capture", nil)
			return
		}

		capture, err := st.GetCapture(r.Context(), id, userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load capture", nil)
			return
		}
		response.JSON(w, capture)
	}
}

// NewDeleteCaptureHandler returns an http.HandlerFunc for DELETE /api/v1/captures/{captureID}.
func NewDeleteCaptureHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "captureID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"capture id must be a valid UUID", nil)
			return
		}

		if err := st.DeleteCapture(r.Context(), id, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Capture not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to delete capture", nil)
			return
		}

		response.NoContent(w)
	}
}

// NewAnalyzeCaptureHandler returns an http.HandlerFunc for
// POST /api/v1/captures/{captureID}/analyze. It enqueues an ai.analyze job
// and marks the capture as analyzing.
func NewAnalyzeCaptureHandler(st store.Store, q queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "captureID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"capture id must be a valid UUID", nil)
			return
		}

		if _, err := st.GetCapture(r.Context(), id, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Capture not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load capture", nil)
			return
		}

		payload, _ := json.Marshal(models.AnalyzePayload{CaptureID: id})
		job, err := q.Enqueue(r.Context(), models.JobTypeAnalyze, payload, &userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to enqueue analysis", nil)
			return
		}

		if err := st.UpdateCapture(r.Context(), id, userID,
			store.WithAnalysisStatus(models.AnalysisStatusAnalyzing)); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to update capture status", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id": job.ID,
			"status": job.Status,
		})
	}
}
