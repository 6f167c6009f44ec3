package store

import (
	"context"
	"errors"
	"time"

	"github.com/contentradar/contentradar/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations outside the
// job queue go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID string) error

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]*models.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, userID string, opts ...ProjectUpdateOption) error
	DeleteProject(ctx context.Context, id uuid.UUID, userID string) error

	CreateCapture(ctx context.Context, c *models.Capture) error
	GetCapture(ctx context.Context, id uuid.UUID, userID string) (*models.Capture, error)
	ListCaptures(ctx context.Context, filter CaptureFilter) ([]*models.Capture, int, error)
	UpdateCapture(ctx context.Context, id uuid.UUID, userID string, opts ...CaptureUpdateOption) error
	DeleteCapture(ctx context.Context, id uuid.UUID, userID string) error

	CreateBrief(ctx context.Context, b *models.Brief) error
	GetBrief(ctx context.Context, id uuid.UUID, userID string) (*models.Brief, error)
	ListBriefs(ctx context.Context, userID string, page, limit int) ([]*models.Brief, int, error)
	DeleteBrief(ctx context.Context, id uuid.UUID, userID string) error
	AddBriefSlide(ctx context.Context, s *models.BriefSlide) error
	ListBriefSlides(ctx context.Context, briefID uuid.UUID) ([]*models.BriefSlide, error)
	RemoveBriefSlide(ctx context.Context, briefID, slideID uuid.UUID) error

	UpsertMoment(ctx context.Context, m *models.Moment) (*models.Moment, error)
	ListMoments(ctx context.Context, since time.Time, limit int) ([]*models.Moment, error)
}

// Capture sort orders. SortRelevance ranks by full-text match against
// Query and falls back to recency when Query is empty.
const (
	SortDate       = "date"
	SortViralScore = "viral_score"
	SortRelevance  = "relevance"
)

// CaptureFilter narrows and paginates capture listings. Query matches
// title, content and summary.
type CaptureFilter struct {
	UserID         string
	ProjectID      *uuid.UUID
	Platform       string
	AnalysisStatus string
	Tag            string
	Query          string
	Sort           string
	Since          time.Time
	Page           int
	Limit          int
}

type projectUpdateParams struct {
	Name        *string
	Description *string
	Status      *string
	Client      *string
	Deadline    *time.Time
	Tags        []string
}

type ProjectUpdateOption func(*projectUpdateParams)

func WithProjectName(name string) ProjectUpdateOption {
	return func(p *projectUpdateParams) { p.Name = &name }
}

func WithProjectDescription(desc string) ProjectUpdateOption {
	return func(p *projectUpdateParams) { p.Description = &desc }
}

func WithProjectStatus(status string) ProjectUpdateOption {
	return func(p *projectUpdateParams) { p.Status = &status }
}

func WithProjectClient(client string) ProjectUpdateOption {
	return func(p *projectUpdateParams) { p.Client = &client }
}

func WithProjectDeadline(deadline time.Time) ProjectUpdateOption {
	return func(p *projectUpdateParams) { p.Deadline = &deadline }
}

func WithProjectTags(tags []string) ProjectUpdateOption {
	return func(p *projectUpdateParams) { p.Tags = tags }
}

type captureUpdateParams struct {
	Title          *string
	Content        *string
	Tags           []string
	Summary        *string
	AnalysisStatus *string
	Analysis       []byte
	Embedding      []byte
	ViralScore     *float64
}

type CaptureUpdateOption func(*captureUpdateParams)

func WithTitle(title string) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.Title = &title }
}

func WithContent(content string) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.Content = &content }
}

func WithTags(tags []string) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.Tags = tags }
}

func WithSummary(summary string) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.Summary = &summary }
}

func WithAnalysisStatus(status string) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.AnalysisStatus = &status }
}

func WithAnalysis(analysis []byte) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.Analysis = analysis }
}

func WithEmbedding(embedding []byte) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.Embedding = embedding }
}

func WithViralScore(score float64) CaptureUpdateOption {
	return func(p *captureUpdateParams) { p.ViralScore = &score }
}
