package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/contentradar/contentradar/pkg/models"
)

func seedCapture(s *fakeStore, userID string) *models.Capture {
	c := &models.Capture{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          "Seeded capture",
		Content:        "seeded content",
		Platform:       "web",
		Tags:           []string{"seed"},
		AnalysisStatus: models.AnalysisStatusPending,
	}
	s.captures[c.ID] = c
	return c
}

func TestCreateCapture_WithContent(t *testing.T) {
	st := newFakeStore()
	h := NewCreateCaptureHandler(st)

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/captures", map[string]any{
		"title":   "A post",
		"content": "some raw text",
		"tags":    []string{"ai"},
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["title"] != "A post" {
		t.Errorf("expected title preserved, got %v", data["title"])
	}
	if data["analysis_status"] != models.AnalysisStatusPending {
		t.Errorf("expected pending status, got %v", data["analysis_status"])
	}
	if data["user_id"] != testUserID {
		t.Errorf("expected owner %q, got %v", testUserID, data["user_id"])
	}
	if len(st.captures) != 1 {
		t.Fatalf("expected 1 stored capture, got %d", len(st.captures))
	}
}

func TestCreateCapture_MissingBoth(t *testing.T) {
	h := NewCreateCaptureHandler(newFakeStore())

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/captures", map[string]any{
		"title": "empty",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}

func TestCreateCapture_BadURL(t *testing.T) {
	h := NewCreateCaptureHandler(newFakeStore())

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodPost, "/api/v1/captures", map[string]any{
		"url": "ftp://example.com/file",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetCapture_NotFound(t *testing.T) {
	h := NewGetCaptureHandler(newFakeStore())

	r := authedReq(t, http.MethodGet, "/api/v1/captures/x", nil)
	r = withURLParam(r, "captureID", uuid.NewString())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetCapture_OtherUserScoped(t *testing.T) {
	st := newFakeStore()
	c := seedCapture(st, "someone-else")
	h := NewGetCaptureHandler(st)

	r := authedReq(t, http.MethodGet, "/api/v1/captures/x", nil)
	r = withURLParam(r, "captureID", c.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign capture, got %d", rec.Code)
	}
}

func TestListCaptures_Empty(t *testing.T) {
	h := NewListCapturesHandler(newFakeStore())

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodGet, "/api/v1/captures", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"data":[]`) {
		t.Errorf("expected empty data array, got %s", body)
	}
}

func TestListCaptures_SearchQuery(t *testing.T) {
	st := newFakeStore()
	match := seedCapture(st, testUserID)
	match.Title = "Deinfluencing on TikTok"
	other := seedCapture(st, testUserID)
	other.Title = "Quiet luxury explainer"
	h := NewListCapturesHandler(st)

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodGet, "/api/v1/captures?q=deinfluencing", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Deinfluencing on TikTok") {
		t.Errorf("expected matching capture in results, got %s", body)
	}
	if strings.Contains(body, "Quiet luxury explainer") {
		t.Errorf("expected non-matching capture filtered out, got %s", body)
	}
}

func TestListCaptures_InvalidSort(t *testing.T) {
	h := NewListCapturesHandler(newFakeStore())

	rec := httptest.NewRecorder()
	h(rec, authedReq(t, http.MethodGet, "/api/v1/captures?sort=popularity", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteCapture_Success(t *testing.T) {
	st := newFakeStore()
	c := seedCapture(st, testUserID)
	h := NewDeleteCaptureHandler(st)

	r := authedReq(t, http.MethodDelete, "/api/v1/captures/x", nil)
	r = withURLParam(r, "captureID", c.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(st.captures) != 0 {
		t.Errorf("expected capture deleted")
	}
}

func TestAnalyzeCapture_Enqueues(t *testing.T) {
	st := newFakeStore()
	q := newFakeJobQueue()
	c := seedCapture(st, testUserID)
	h := NewAnalyzeCaptureHandler(st, q)

	r := authedReq(t, http.MethodPost, "/api/v1/captures/x/analyze", nil)
	r = withURLParam(r, "captureID", c.ID.String())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["job_id"] == nil {
		t.Fatal("expected job_id in response")
	}
	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(q.jobs))
	}
	for _, job := range q.jobs {
		if job.Type != models.JobTypeAnalyze {
			t.Errorf("expected %s job, got %s", models.JobTypeAnalyze, job.Type)
		}
	}
}

func TestAnalyzeCapture_NotFound(t *testing.T) {
	h := NewAnalyzeCaptureHandler(newFakeStore(), newFakeJobQueue())

	r := authedReq(t, http.MethodPost, "/api/v1/captures/x/analyze", nil)
	r = withURLParam(r, "captureID", uuid.NewString())
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
