package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/api/response"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

var validSections = map[string]bool{
	models.BriefSectionDefine:  true,
	models.BriefSectionShift:   true,
	models.BriefSectionDeliver: true,
}

// NewCreateBriefHandler returns an http.HandlerFunc for POST /api/v1/briefs.
func NewCreateBriefHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			ProjectID   string `json:"project_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "title is required", nil)
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
			projectID = &id
		}

		brief := &models.Brief{
			ID:        uuid.New(),
			UserID:    userID,
			ProjectID: projectID,
			Title:     req.Title,
			Status:    "draft",
		}
		if req.Description != "" {
			brief.Description = &req.Description
		}

		if err := st.CreateBrief(r.Context(), brief); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create brief", nil)
			return
		}

		response.Created(w, brief)
	}
}

// NewListBriefsHandler returns an http.HandlerFunc for GET /api/v1/briefs.
func NewListBriefsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		page, limit := parsePagination(r)
		briefs, total, err := st.ListBriefs(r.Context(), userID, page, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list briefs", nil)
			return
		}
		if briefs == nil {
			briefs = []*models.Brief{}
		}

		response.Collection(w, briefs, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

// NewGetBriefHandler returns an http.HandlerFunc for GET /api/v1/briefs/{briefID}.
// The brief is returned with its slides.
func NewGetBriefHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "briefID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"brief id must be a valid UUID", nil)
			return
		}

		brief, err := st.GetBrief(r.Context(), id, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Brief not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load brief", nil)
			return
		}

		slides, err := st.ListBriefSlides(r.Context(), id)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load brief slides", nil)
			return
		}
		if slides == nil {
			slides = []*models.BriefSlide{}
		}

		response.JSON(w, map[string]any{
			"brief":  brief,
			"slides": slides,
		})
	}
}

// NewDeleteBriefHandler returns an http.HandlerFunc for DELETE /api/v1/briefs/{briefID}.
func NewDeleteBriefHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, ok := parseIDParam(r, "briefID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"brief id must be a valid UUID", nil)
			return
		}

		if err := st.DeleteBrief(r.Context(), id, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Brief not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to delete brief", nil)
			return
		}

		response.NoContent(w)
	}
}

// NewAddSlideHandler returns an http.HandlerFunc for
// POST /api/v1/briefs/{briefID}/slides. The capture must belong to the same
// user as the brief.
func NewAddSlideHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		briefID, ok := parseIDParam(r, "briefID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"brief id must be a valid UUID", nil)
			return
		}

		var req struct {
			CaptureID string `json:"capture_id"`
			Section   string `json:"section"`
			Position  int    `json:"position"`
			Notes     string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		captureID, err := uuid.Parse(req.CaptureID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"capture_id must be a valid UUID", nil)
			return
		}
		if !validSections[req.Section] {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"section must be one of define, shift, deliver", nil)
			return
		}
		if req.Position < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"position must be non-negative", nil)
			return
		}

		if _, err := st.GetBrief(r.Context(), briefID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Brief not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load brief", nil)
			return
		}
		if _, err := st.GetCapture(r.Context(), captureID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Capture not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load capture", nil)
			return
		}

		slide := &models.BriefSlide{
			ID:        uuid.New(),
			BriefID:   briefID,
			CaptureID: captureID,
			Section:   req.Section,
			Position:  req.Position,
		}
		if req.Notes != "" {
			slide.Notes = &req.Notes
		}

		if err := st.AddBriefSlide(r.Context(), slide); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to add slide", nil)
			return
		}

		response.Created(w, slide)
	}
}

// NewRemoveSlideHandler returns an http.HandlerFunc for
// DELETE /api/v1/briefs/{briefID}/slides/{slideID}.
func NewRemoveSlideHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		briefID, ok := parseIDParam(r, "briefID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"brief id must be a valid UUID", nil)
			return
		}
		slideID, ok := parseIDParam(r, "slideID")
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"slide id must be a valid UUID", nil)
			return
		}

		if _, err := st.GetBrief(r.Context(), briefID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Brief not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load brief", nil)
			return
		}

		if err := st.RemoveBriefSlide(r.Context(), briefID, slideID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Slide not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to remove slide", nil)
			return
		}

		response.NoContent(w)
	}
}
