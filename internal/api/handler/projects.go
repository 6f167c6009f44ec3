package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

var validProjectStatuses = map[string]bool{
	models.ProjectStatusActive:   true,
	models.ProjectStatusArchived: true,
}

// NewCreateProjectHandler returns an http.HandlerFunc for POST /api/v1/projects.
func NewCreateProjectHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Client      string   `json:"client"`
			Deadline    string   `json:"deadline"`
			Tags        []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if req.Tags == nil {
			req.Tags = []string{}
		}

		project := &models.Project{
			ID:     uuid.New(),
			UserID: userID,
			Name:   req.Name,
			Status: models.ProjectStatusActive,
			Tags:   req.Tags,
		}
		if req.Description != "" {
			project.Description = &req.Description
		}
		if req.Client != "" {
			project.Client = &req.Client
		}
		if req.Deadline != "" {
			deadline, err := time.Parse(time.RFC3339, req.Deadline)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"deadline must be a valid RFC3339 timestamp", nil)
				return
			}
			project.Deadline = &deadline
		}

		if err := st.CreateProject(r.Context(), project); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create project", nil)
			return
		}

		response.Created(w, project)
	}
}

// NewListProjectsHandler returns an http.HandlerFunc for GET /api/v1/projects.
func NewListProjectsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		projects, err := st.ListProjects(r.Context(), userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list projects", nil)
			return
		}
		if projects == nil {
			projects = []*models.Project{}
		}

		response.JSON(w, projects)
	}
}

// NewGetProjectHandler returns an http.HandlerFunc for GET /api/v1/projects/{projectID}.
func NewGetProjectHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "projectID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"project id must be a valid UUID", nil)
			return
		}

		project, err := st.GetProject(r.Context(), id, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load project", nil)
			return
		}

		response.JSON(w, project)
	}
}

// NewUpdateProjectHandler returns an http.HandlerFunc for PATCH /api/v1/projects/{projectID}.
func NewUpdateProjectHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "projectID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"project id must be a valid UUID", nil)
			return
		}

		var req struct {
			Name        *string  `json:"name"`
			Description *string  `json:"description"`
			Status      *string  `json:"status"`
			Client      *string  `json:"client"`
			Deadline    *string  `json:"deadline"`
			Tags        []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var opts []store.ProjectUpdateOption
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"name must not be empty", nil)
				return
			}
			opts = append(opts, store.WithProjectName(name))
		}
		if req.Description != nil {
			opts = append(opts, store.WithProjectDescription(*req.Description))
		}
		if req.Status != nil {
			if !validProjectStatuses[*req.Status] {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"status must be one of: active, archived", nil)
				return
			}
			opts = append(opts, store.WithProjectStatus(*req.Status))
		}
		if req.Client != nil {
			opts = append(opts, store.WithProjectClient(*req.Client))
		}
		if req.Deadline != nil {
			deadline, err := time.Parse(time.RFC3339, *req.Deadline)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"deadline must be a valid RFC3339 timestamp", nil)
				return
			}
			opts = append(opts, store.WithProjectDeadline(deadline))
		}
		if req.Tags != nil {
			opts = append(opts, store.WithProjectTags(req.Tags))
		}
		if len(opts) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"at least one updatable field is required", nil)
			return
		}

		if err := st.UpdateProject(r.Context(), id, userID, opts...); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to update project", nil)
			return
		}

		project, err := st.GetProject(r.Context(), id, userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load project", nil)
			return
		}
		response.JSON(w, project)
	}
}

// NewDeleteProjectHandler returns an http.HandlerFunc for DELETE /api/v1/projects/{projectID}.
// Captures and briefs under the project are detached, not deleted.
func NewDeleteProjectHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "projectID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"project id must be a valid UUID", nil)
			return
		}

		if err := st.DeleteProject(r.Context(), id, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to delete project", nil)
			return
		}

		response.NoContent(w)
	}
}
