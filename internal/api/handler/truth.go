package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/pkg/models"
)

// NewCreateTruthCheckHandler returns an http.HandlerFunc for
// POST /api/v1/truth-checks. Exactly one of url or content must be set; url
// checks run content extraction in the worker before analysis.
func NewCreateTruthCheckHandler(q queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			URL      string `json:"url"`
			Content  string `json:"content"`
			Title    string `json:"title"`
			Platform string `json:"platform"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		req.URL = strings.TrimSpace(req.URL)
		req.Content = strings.TrimSpace(req.Content)
		if (req.URL == "") == (req.Content == "") {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"exactly one of url or content is required", nil)
			return
		}
		if req.URL != "" && !validHTTPURL(req.URL) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"url must be a valid http(s) URL", nil)
			return
		}

		payload, _ := json.Marshal(models.TruthAnalyzePayload{
			URL:      req.URL,
			Content:  req.Content,
			Title:    req.Title,
			Platform: req.Platform,
		})
		job, err := q.Enqueue(r.Context(), models.JobTypeTruthAnalyze, payload, &userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to enqueue truth check", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id": job.ID,
			"status": job.Status,
		})
	}
}

// NewGetTruthCheckHandler returns an http.HandlerFunc for
// GET /api/v1/truth-checks/{jobID}. Failed checks report their error rather
// than being dropped.
func NewGetTruthCheckHandler(q queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "jobID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"job id must be a valid UUID", nil)
			return
		}

		job, err := q.Get(r.Context(), id, &userID)
		if err != nil {
			if errors.Is(err, queue.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Truth check not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load truth check", nil)
			return
		}
		if job.Type != models.JobTypeTruthAnalyze {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Truth check not found", nil)
			return
		}

		response.JSON(w, jobView(job))
	}
}

// NewRetryTruthCheckHandler returns an http.HandlerFunc for
// POST /api/v1/truth-checks/{jobID}/retry. Only failed checks can be
// retried; the original payload is re-enqueued as a fresh job.
func NewRetryTruthCheckHandler(q queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "jobID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"job id must be a valid UUID", nil)
			return
		}

		job, err := q.Get(r.Context(), id, &userID)
		if err != nil {
			if errors.Is(err, queue.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Truth check not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load truth check", nil)
			return
		}
		if job.Type != models.JobTypeTruthAnalyze {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Truth check not found", nil)
			return
		}
		if job.Status != models.JobStatusFailed {
			response.Error(w, http.StatusConflict, "NOT_RETRYABLE",
				"Only failed truth checks can be retried", nil)
			return
		}

		retried, err := q.Enqueue(r.Context(), models.JobTypeTruthAnalyze, job.Payload, &userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to enqueue retry", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id": retried.ID,
			"status": retried.Status,
		})
	}
}
