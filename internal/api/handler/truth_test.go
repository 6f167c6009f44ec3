package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/contentradar/contentradar/pkg/models"
)

func TestCreateTruthCheck_WithURL(t *testing.T) {
	q := newFakeJobQueue()
	h := NewCreateTruthCheckHandler(q)

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/truth-checks", map[string]any{
		"url": "https://example.com/article",
	}))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(q.jobs))
	}
	for _, job := range q.jobs {
		if job.Type != models.JobTypeTruthAnalyze {
			t.Errorf("expected %s, got %s", models.JobTypeTruthAnalyze, job.Type)
		}
		var payload models.TruthAnalyzePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.URL != "https://example.com/article" {
			t.Errorf("expected url in payload, got %q", payload.URL)
		}
	}
}

func TestCreateTruthCheck_BothURLAndContent(t *testing.T) {
	h := NewCreateTruthCheckHandler(newFakeJobQueue())

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/truth-checks", map[string]any{
		"url":     "https://example.com",
		"content": "some text",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateTruthCheck_Neither(t *testing.T) {
	h := NewCreateTruthCheckHandler(newFakeJobQueue())

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/truth-checks", map[string]any{}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetTruthCheck_ReportsFailure(t *testing.T) {
	q := newFakeJobQueue()
	userID := testUserID
	errMsg := "analysis failed: provider unavailable"
	job := &models.Job{
		ID:        uuid.New(),
		Type:      models.JobTypeTruthAnalyze,
		Status:    models.JobStatusFailed,
		Attempts:  3,
		LastError: &errMsg,
		UserID:    &userID,
	}
	q.jobs[job.ID] = job
	h := NewGetTruthCheckHandler(q)

	r := authedReq(t, http.MethodGet, "/api/v1/truth-checks/x", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["status"] != models.JobStatusFailed {
		t.Errorf("expected failed status, got %v", data["status"])
	}
	if data["error"] != errMsg {
		t.Errorf("expected error surfaced, got %v", data["error"])
	}
}

func TestGetTruthCheck_WrongTypeHidden(t *testing.T) {
	q := newFakeJobQueue()
	userID := testUserID
	job := &models.Job{
		ID:     uuid.New(),
		Type:   models.JobTypeAnalyze,
		Status: models.JobStatusQueued,
		UserID: &userID,
	}
	q.jobs[job.ID] = job
	h := NewGetTruthCheckHandler(q)

	r := authedReq(t, http.MethodGet, "/api/v1/truth-checks/x", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non truth-check job, got %d", rec.Code)
	}
}

func TestRetryTruthCheck_OnlyFailed(t *testing.T) {
	q := newFakeJobQueue()
	userID := testUserID
	job := &models.Job{
		ID:     uuid.New(),
		Type:   models.JobTypeTruthAnalyze,
		Status: models.JobStatusQueued,
		UserID: &userID,
	}
	q.jobs[job.ID] = job
	h := NewRetryTruthCheckHandler(q)

	r := authedReq(t, http.MethodPost, "/api/v1/truth-checks/x/retry", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "NOT_RETRYABLE" {
		t.Errorf("expected NOT_RETRYABLE, got %s", code)
	}
}

func TestRetryTruthCheck_ReenqueuesPayload(t *testing.T) {
	q := newFakeJobQueue()
	userID := testUserID
	payload, _ := json.Marshal(models.TruthAnalyzePayload{Content: "claim text"})
	job := &models.Job{
		ID:      uuid.New(),
		Type:    models.JobTypeTruthAnalyze,
		Status:  models.JobStatusFailed,
		Payload: payload,
		UserID:  &userID,
	}
	q.jobs[job.ID] = job
	h := NewRetryTruthCheckHandler(q)

	r := authedReq(t, http.MethodPost, "/api/v1/truth-checks/x/retry", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.jobs) != 2 {
		t.Fatalf("expected retry to enqueue a fresh job, have %d", len(q.jobs))
	}
	for id, j := range q.jobs {
		if id == job.ID {
			continue
		}
		if string(j.Payload) != string(payload) {
			t.Errorf("expected original payload carried over, got %s", j.Payload)
		}
		if j.Status != models.JobStatusQueued {
			t.Errorf("expected fresh job queued, got %s", j.Status)
		}
	}
}
