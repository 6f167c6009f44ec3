package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/contentradar/contentradar/pkg/models"
)

func TestEnqueueJob_KnownType(t *testing.T) {
	q := newFakeJobQueue()
	h := NewEnqueueJobHandler(q)

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"type":    models.JobTypeTruthAnalyze,
		"payload": map[string]any{"content": "claim"},
	}))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(q.jobs))
	}
}

func TestEnqueueJob_UnknownTypeAccepted(t *testing.T) {
	q := newFakeJobQueue()
	h := NewEnqueueJobHandler(q)

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"type": "video.transcode",
	}))

	// Unhandled types are still enqueued; the worker fails them and the
	// failure surfaces through the poll endpoint.
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(q.jobs))
	}
	for _, job := range q.jobs {
		if job.Type != "video.transcode" {
			t.Errorf("expected type preserved, got %s", job.Type)
		}
	}
}

func TestEnqueueJob_MissingType(t *testing.T) {
	q := newFakeJobQueue()
	h := NewEnqueueJobHandler(q)

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"payload": map[string]any{"content": "claim"},
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(q.jobs) != 0 {
		t.Errorf("expected nothing enqueued")
	}
}

func TestPollJob_ScopedToOwner(t *testing.T) {
	q := newFakeJobQueue()
	otherUser := "someone-else"
	job := &models.Job{
		ID:     uuid.New(),
		Type:   models.JobTypeAnalyze,
		Status: models.JobStatusSucceeded,
		UserID: &otherUser,
	}
	q.jobs[job.ID] = job
	h := NewPollJobHandler(q, nil)

	r := authedReq(t, http.MethodGet, "/api/v1/jobs/x", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign job, got %d", rec.Code)
	}
}

func TestPollJob_ReturnsResult(t *testing.T) {
	q := newFakeJobQueue()
	userID := testUserID
	job := &models.Job{
		ID:     uuid.New(),
		Type:   models.JobTypeTruthAnalyze,
		Status: models.JobStatusSucceeded,
		Result: []byte(`{"result_truth":{"fact":["x"]}}`),
		UserID: &userID,
	}
	q.jobs[job.ID] = job
	h := NewPollJobHandler(q, nil)

	r := authedReq(t, http.MethodGet, "/api/v1/jobs/x", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["status"] != models.JobStatusSucceeded {
		t.Errorf("expected succeeded, got %v", data["status"])
	}
	if data["result"] == nil {
		t.Error("expected result in response")
	}
}

func TestPollJob_ServesCachedStatus(t *testing.T) {
	q := newFakeJobQueue()
	c := newFakeCache()
	jobID := uuid.New()
	c.jobStatus[jobID] = models.JobStatusRunning
	h := NewPollJobHandler(q, c)

	r := authedReq(t, http.MethodGet, "/api/v1/jobs/x", nil)
	r = withURLParam(r, "jobID", jobID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	// The queue has no such job; the cached in-flight status answers alone.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from cache, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["status"] != models.JobStatusRunning {
		t.Errorf("expected running, got %v", data["status"])
	}
	if data["result"] != nil {
		t.Error("cached response must not carry a result")
	}
}

func TestPollJob_TerminalStatusNotCached(t *testing.T) {
	q := newFakeJobQueue()
	c := newFakeCache()
	userID := testUserID
	job := &models.Job{
		ID:     uuid.New(),
		Type:   models.JobTypeAnalyze,
		Status: models.JobStatusFailed,
		UserID: &userID,
	}
	q.jobs[job.ID] = job
	// A stale terminal entry must not short-circuit the row lookup.
	c.jobStatus[job.ID] = models.JobStatusFailed
	h := NewPollJobHandler(q, c)

	r := authedReq(t, http.MethodGet, "/api/v1/jobs/x", nil)
	r = withURLParam(r, "jobID", job.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["attempts"] == nil {
		t.Error("expected full job view from the row, not the cache")
	}
}

func TestPollJob_InvalidID(t *testing.T) {
	h := NewPollJobHandler(newFakeJobQueue(), nil)

	r := authedReq(t, http.MethodGet, "/api/v1/jobs/x", nil)
	r = withURLParam(r, "jobID", "not-a-uuid")
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
