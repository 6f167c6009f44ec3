package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

const testUserID = "user-1"

// --- in-memory store ---

type fakeStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
	captures map[uuid.UUID]*models.Capture
	briefs   map[uuid.UUID]*models.Brief
	slides   map[uuid.UUID]*models.BriefSlide
	keys     map[uuid.UUID]*models.APIKey
	moments  []*models.Moment
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[uuid.UUID]*models.Project),
		captures: make(map[uuid.UUID]*models.Capture),
		briefs:   make(map[uuid.UUID]*models.Brief),
		slides:   make(map[uuid.UUID]*models.BriefSlide),
		keys:     make(map[uuid.UUID]*models.APIKey),
	}
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.err }

func (s *fakeStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	return nil, nil
}

func (s *fakeStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error { return nil }

func (s *fakeStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = key
	return nil
}

func (s *fakeStore) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *fakeStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.keys, id)
	return nil
}

func (s *fakeStore) CreateProject(ctx context.Context, p *models.Project) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

func (s *fakeStore) GetProject(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) ListProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateProject(ctx context.Context, id uuid.UUID, userID string, opts ...store.ProjectUpdateOption) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) DeleteProject(ctx context.Context, id uuid.UUID, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *fakeStore) CreateCapture(ctx context.Context, c *models.Capture) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures[c.ID] = c
	return nil
}

func (s *fakeStore) GetCapture(ctx context.Context, id uuid.UUID, userID string) (*models.Capture, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.captures[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) ListCaptures(ctx context.Context, filter store.CaptureFilter) ([]*models.Capture, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Capture
	for _, c := range s.captures {
		if c.UserID != filter.UserID {
			continue
		}
		if filter.Platform != "" && c.Platform != filter.Platform {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(c.Title), q) &&
				!strings.Contains(strings.ToLower(c.Content), q) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *fakeStore) UpdateCapture(ctx context.Context, id uuid.UUID, userID string, opts ...store.CaptureUpdateOption) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.captures[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) DeleteCapture(ctx context.Context, id uuid.UUID, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.captures[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.captures, id)
	return nil
}

func (s *fakeStore) CreateBrief(ctx context.Context, b *models.Brief) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefs[b.ID] = b
	return nil
}

func (s *fakeStore) GetBrief(ctx context.Context, id uuid.UUID, userID string) (*models.Brief, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.briefs[id]
	if !ok || b.UserID != userID {
		return nil, store.ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) ListBriefs(ctx context.Context, userID string, page, limit int) ([]*models.Brief, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Brief
	for _, b := range s.briefs {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) DeleteBrief(ctx context.Context, id uuid.UUID, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.briefs[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.briefs, id)
	return nil
}

func (s *fakeStore) AddBriefSlide(ctx context.Context, sl *models.BriefSlide) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slides[sl.ID] = sl
	return nil
}

func (s *fakeStore) ListBriefSlides(ctx context.Context, briefID uuid.UUID) ([]*models.BriefSlide, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.BriefSlide
	for _, sl := range s.slides {
		if sl.BriefID == briefID {
			out = append(out, sl)
		}
	}
	return out, nil
}

func (s *fakeStore) RemoveBriefSlide(ctx context.Context, briefID, slideID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slides[slideID]
	if !ok || sl.BriefID != briefID {
		return store.ErrNotFound
	}
	delete(s.slides, slideID)
	return nil
}

func (s *fakeStore) UpsertMoment(ctx context.Context, m *models.Moment) (*models.Moment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moments = append(s.moments, m)
	return m, nil
}

func (s *fakeStore) ListMoments(ctx context.Context, since time.Time, limit int) ([]*models.Moment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moments, nil
}

var _ store.Store = (*fakeStore)(nil)

// --- in-memory queue ---

type fakeJobQueue struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*models.Job
	enqueueErr error
}

func newFakeJobQueue() *fakeJobQueue {
	return &fakeJobQueue{jobs: make(map[uuid.UUID]*models.Job)}
}

func (q *fakeJobQueue) Enqueue(ctx context.Context, jobType string, payload json.RawMessage, userID *string) (*models.Job, error) {
	if q.enqueueErr != nil {
		return nil, q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	job := &models.Job{
		ID:      uuid.New(),
		Type:    jobType,
		Payload: payload,
		Status:  models.JobStatusQueued,
		UserID:  userID,
	}
	q.jobs[job.ID] = job
	return job, nil
}

func (q *fakeJobQueue) TakeNext(ctx context.Context) (*models.Job, error) { return nil, nil }

func (q *fakeJobQueue) Succeed(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	return nil
}

func (q *fakeJobQueue) RetryLater(ctx context.Context, id uuid.UUID, errMsg string) error {
	return nil
}

func (q *fakeJobQueue) Fail(ctx context.Context, id uuid.UUID, errMsg string) error { return nil }

func (q *fakeJobQueue) Get(ctx context.Context, id uuid.UUID, userID *string) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, queue.ErrNotFound
	}
	if userID != nil && (job.UserID == nil || *job.UserID != *userID) {
		return nil, queue.ErrNotFound
	}
	return job, nil
}

var _ queue.Queue = (*fakeJobQueue)(nil)

// --- request helpers ---

func authedReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r.WithContext(mw.SetUserID(r.Context(), testUserID))
}

// withURLParam injects a chi route parameter so handlers can be invoked
// without mounting a full router.
func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, val)
	return r
}

// --- in-memory cache ---

type fakeCache struct {
	mu        sync.Mutex
	data      map[string][]byte
	jobStatus map[uuid.UUID]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		data:      make(map[string][]byte),
		jobStatus: make(map[uuid.UUID]string),
	}
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) SetJobStatus(_ context.Context, jobID uuid.UUID, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobStatus[jobID] = status
	return nil
}

func (c *fakeCache) GetJobStatus(_ context.Context, jobID uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.jobStatus[jobID]
	return s, ok, nil
}

func (c *fakeCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	return 1, nil
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func decodeErrCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Error.Code
}
