package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

func setupStore(t *testing.T) *store.PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("contentradar_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return store.NewPostgresStore(pool)
}

func newCapture(userID string) *models.Capture {
	return &models.Capture{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          "A capture",
		Content:        "body text",
		Platform:       "twitter",
		Tags:           []string{"trend", "food"},
		AnalysisStatus: models.AnalysisStatusPending,
	}
}

func TestCaptureRoundtrip(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	c := newCapture("user-1")
	pageURL := "https://example.com/post"
	c.URL = &pageURL
	require.NoError(t, st.CreateCapture(ctx, c))

	got, err := st.GetCapture(ctx, c.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "A capture", got.Title)
	require.NotNil(t, got.URL)
	assert.Equal(t, pageURL, *got.URL)
	assert.Equal(t, []string{"trend", "food"}, got.Tags)
	assert.Equal(t, models.AnalysisStatusPending, got.AnalysisStatus)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCaptureUserScoping(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	c := newCapture("user-1")
	require.NoError(t, st.CreateCapture(ctx, c))

	_, err := st.GetCapture(ctx, c.ID, "user-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = st.DeleteCapture(ctx, c.ID, "user-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// still there for the owner
	_, err = st.GetCapture(ctx, c.ID, "user-1")
	assert.NoError(t, err)
}

func TestListCaptures_Filters(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	twitter := newCapture("user-1")
	require.NoError(t, st.CreateCapture(ctx, twitter))

	tiktok := newCapture("user-1")
	tiktok.ID = uuid.New()
	tiktok.Platform = "tiktok"
	tiktok.Tags = []string{"dance"}
	require.NoError(t, st.CreateCapture(ctx, tiktok))

	foreign := newCapture("user-2")
	foreign.ID = uuid.New()
	require.NoError(t, st.CreateCapture(ctx, foreign))

	all, total, err := st.ListCaptures(ctx, store.CaptureFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	byPlatform, total, err := st.ListCaptures(ctx, store.CaptureFilter{UserID: "user-1", Platform: "tiktok"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byPlatform, 1)
	assert.Equal(t, tiktok.ID, byPlatform[0].ID)

	byTag, _, err := st.ListCaptures(ctx, store.CaptureFilter{UserID: "user-1", Tag: "food"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, twitter.ID, byTag[0].ID)
}

func TestUpdateCapture_AnalysisFields(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	c := newCapture("user-1")
	require.NoError(t, st.CreateCapture(ctx, c))

	err := st.UpdateCapture(ctx, c.ID, "user-1",
		store.WithSummary("a summary"),
		store.WithAnalysisStatus(models.AnalysisStatusCompleted),
		store.WithViralScore(8.5),
		store.WithAnalysis([]byte(`{"summary":"a summary","tags":["x"],"viral_score":8.5}`)),
	)
	require.NoError(t, err)

	got, err := st.GetCapture(ctx, c.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "a summary", *got.Summary)
	assert.Equal(t, models.AnalysisStatusCompleted, got.AnalysisStatus)
	require.NotNil(t, got.ViralScore)
	assert.InDelta(t, 8.5, *got.ViralScore, 0.001)
	assert.NotEmpty(t, got.Analysis)
}

func TestUpdateCapture_NotFound(t *testing.T) {
	st := setupStore(t)

	err := st.UpdateCapture(context.Background(), uuid.New(), "user-1",
		store.WithTitle("nope"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBriefWithSlides(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	c := newCapture("user-1")
	require.NoError(t, st.CreateCapture(ctx, c))

	b := &models.Brief{
		ID:     uuid.New(),
		UserID: "user-1",
		Title:  "Q3 snacking",
		Status: "draft",
	}
	require.NoError(t, st.CreateBrief(ctx, b))

	second := &models.BriefSlide{
		ID:        uuid.New(),
		BriefID:   b.ID,
		CaptureID: c.ID,
		Section:   models.BriefSectionDefine,
		Position:  1,
	}
	first := &models.BriefSlide{
		ID:        uuid.New(),
		BriefID:   b.ID,
		CaptureID: c.ID,
		Section:   models.BriefSectionDefine,
		Position:  0,
	}
	require.NoError(t, st.AddBriefSlide(ctx, second))
	require.NoError(t, st.AddBriefSlide(ctx, first))

	slides, err := st.ListBriefSlides(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, first.ID, slides[0].ID, "slides ordered by position")

	require.NoError(t, st.RemoveBriefSlide(ctx, b.ID, first.ID))
	err = st.RemoveBriefSlide(ctx, b.ID, first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// deleting the brief cascades the remaining slide
	require.NoError(t, st.DeleteBrief(ctx, b.ID, "user-1"))
	slides, err = st.ListBriefSlides(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, slides)
}

func TestUpsertMoment_Aggregates(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(platform string) *models.Moment {
		return &models.Moment{
			ID:          uuid.New(),
			Title:       "dupe culture",
			Description: "dupe culture",
			Intensity:   1,
			Platforms:   []string{platform},
			FirstSeenAt: now,
			LastSeenAt:  now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	firstResult, err := st.UpsertMoment(ctx, mk("tiktok"))
	require.NoError(t, err)
	assert.Equal(t, 1, firstResult.Intensity)

	secondResult, err := st.UpsertMoment(ctx, mk("instagram"))
	require.NoError(t, err)
	assert.Equal(t, firstResult.ID, secondResult.ID, "same title resolves to the same moment")
	assert.Equal(t, 2, secondResult.Intensity)
	assert.ElementsMatch(t, []string{"tiktok", "instagram"}, secondResult.Platforms)

	moments, err := st.ListMoments(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, moments, 1)
}

func TestListMoments_SinceCutoff(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)

	m := &models.Moment{
		ID:          uuid.New(),
		Title:       "stale trend",
		Intensity:   1,
		Platforms:   []string{"web"},
		FirstSeenAt: old,
		LastSeenAt:  old,
		CreatedAt:   old,
		UpdatedAt:   old,
	}
	_, err := st.UpsertMoment(ctx, m)
	require.NoError(t, err)

	recent, err := st.ListMoments(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestAPIKeyLifecycle(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	key := &models.APIKey{
		ID:        uuid.New(),
		UserID:    "user-1",
		Name:      "ci",
		KeyHash:   "$2a$10$fakefakefakefakefakefake",
		KeyPrefix: "cr_abcde",
		Scopes:    []string{"read", "write"},
	}
	require.NoError(t, st.CreateAPIKey(ctx, key))

	found, err := st.GetAPIKeyByPrefix(ctx, "cr_abcde")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, key.ID, found[0].ID)
	assert.Equal(t, []string{"read", "write"}, found[0].Scopes)

	require.NoError(t, st.UpdateAPIKeyLastUsed(ctx, key.ID))
	listed, err := st.ListAPIKeys(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].LastUsedAt)

	require.NoError(t, st.RevokeAPIKey(ctx, key.ID, "user-1"))

	// revoked keys disappear from prefix lookup
	found, err = st.GetAPIKeyByPrefix(ctx, "cr_abcde")
	require.NoError(t, err)
	assert.Empty(t, found)

	err = st.RevokeAPIKey(ctx, key.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProjectLifecycle(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	deadline := time.Now().UTC().Add(14 * 24 * time.Hour).Truncate(time.Second)
	client := "Acme Snacks"
	p := &models.Project{
		ID:       uuid.New(),
		UserID:   "user-1",
		Name:     "Q3 snacking trends",
		Status:   models.ProjectStatusActive,
		Client:   &client,
		Deadline: &deadline,
		Tags:     []string{"snacking", "q3"},
	}
	require.NoError(t, st.CreateProject(ctx, p))

	got, err := st.GetProject(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 snacking trends", got.Name)
	assert.Equal(t, models.ProjectStatusActive, got.Status)
	require.NotNil(t, got.Client)
	assert.Equal(t, "Acme Snacks", *got.Client)
	require.NotNil(t, got.Deadline)
	assert.WithinDuration(t, deadline, *got.Deadline, time.Second)
	assert.Equal(t, []string{"snacking", "q3"}, got.Tags)

	// projects are scoped to their owner
	_, err = st.GetProject(ctx, p.ID, "user-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = st.UpdateProject(ctx, p.ID, "user-2", store.WithProjectName("stolen"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = st.DeleteProject(ctx, p.ID, "user-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = st.UpdateProject(ctx, p.ID, "user-1",
		store.WithProjectName("Q3 snacking wrap-up"),
		store.WithProjectStatus(models.ProjectStatusArchived),
	)
	require.NoError(t, err)

	got, err = st.GetProject(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 snacking wrap-up", got.Name)
	assert.Equal(t, models.ProjectStatusArchived, got.Status)

	listed, err := st.ListProjects(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	require.NoError(t, st.DeleteProject(ctx, p.ID, "user-1"))
	_, err = st.GetProject(ctx, p.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteProject_DetachesCaptures(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	p := &models.Project{
		ID:     uuid.New(),
		UserID: "user-1",
		Name:   "Client pitch",
		Status: models.ProjectStatusActive,
	}
	require.NoError(t, st.CreateProject(ctx, p))

	c := newCapture("user-1")
	c.ProjectID = &p.ID
	require.NoError(t, st.CreateCapture(ctx, c))

	require.NoError(t, st.DeleteProject(ctx, p.ID, "user-1"))

	// the capture outlives the project, just detached
	got, err := st.GetCapture(ctx, c.ID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
}

func TestListCaptures_SearchAndSort(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	trend := newCapture("user-1")
	trend.Title = "Deinfluencing on TikTok"
	trend.Content = "creators pushing back on overconsumption"
	require.NoError(t, st.CreateCapture(ctx, trend))

	luxury := newCapture("user-1")
	luxury.ID = uuid.New()
	luxury.Title = "Quiet luxury explainer"
	luxury.Content = "stealth wealth aesthetics"
	require.NoError(t, st.CreateCapture(ctx, luxury))

	require.NoError(t, st.UpdateCapture(ctx, trend.ID, "user-1", store.WithViralScore(4.2)))
	require.NoError(t, st.UpdateCapture(ctx, luxury.ID, "user-1", store.WithViralScore(9.1)))

	// query matches title and content, case-insensitively
	byTitle, total, err := st.ListCaptures(ctx, store.CaptureFilter{UserID: "user-1", Query: "deinfluencing"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byTitle, 1)
	assert.Equal(t, trend.ID, byTitle[0].ID)

	byContent, _, err := st.ListCaptures(ctx, store.CaptureFilter{UserID: "user-1", Query: "stealth wealth"})
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	assert.Equal(t, luxury.ID, byContent[0].ID)

	byScore, _, err := st.ListCaptures(ctx, store.CaptureFilter{UserID: "user-1", Sort: store.SortViralScore})
	require.NoError(t, err)
	require.Len(t, byScore, 2)
	assert.Equal(t, luxury.ID, byScore[0].ID)
	assert.Equal(t, trend.ID, byScore[1].ID)

	byRelevance, _, err := st.ListCaptures(ctx, store.CaptureFilter{
		UserID: "user-1",
		Query:  "tiktok",
		Sort:   store.SortRelevance,
	})
	require.NoError(t, err)
	require.Len(t, byRelevance, 1)
	assert.Equal(t, trend.ID, byRelevance[0].ID)
}
