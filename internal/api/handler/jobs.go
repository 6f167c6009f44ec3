package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/cache"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/pkg/models"
)

// jobView is the client-facing job shape shared by the jobs and truth-check
// endpoints.
func jobView(job *models.Job) map[string]any {
	v := map[string]any{
		"id":       job.ID,
		"type":     job.Type,
		"status":   job.Status,
		"attempts": job.Attempts,
	}
	if job.LastError != nil {
		v["error"] = *job.LastError
	}
	if len(job.Result) > 0 {
		v["result"] = json.RawMessage(job.Result)
	}
	return v
}

// NewEnqueueJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// The type is not validated here; the worker fails jobs it has no handler
// for, and that failure is observable through the poll endpoint.
func NewEnqueueJobHandler(q queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Type == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "type is required", nil)
			return
		}

		job, err := q.Enqueue(r.Context(), req.Type, req.Payload, &userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to enqueue job", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id": job.ID,
			"status": job.Status,
		})
	}
}

// NewPollJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
// The cache may be nil. In-flight statuses are served from the cache when
// present; the cached entry holds only the status string, never payloads or
// results, and is evicted once the job goes terminal.
func NewPollJobHandler(q queue.Queue, c cache.Cache) http.HandlerFunc {
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

		if c != nil {
			status, found, err := c.GetJobStatus(r.Context(), id)
			if err == nil && found &&
				(status == models.JobStatusQueued || status == models.JobStatusRunning) {
				response.JSON(w, map[string]any{
					"id":     id,
					"status": status,
				})
				return
			}
		}

		job, err := q.Get(r.Context(), id, &userID)
		if err != nil {
			if errors.Is(err, queue.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load job", nil)
			return
		}

		response.JSON(w, jobView(job))
	}
}
