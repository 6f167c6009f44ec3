package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contentradar/contentradar/internal/analysis"
	"github.com/contentradar/contentradar/internal/cache"
	"github.com/contentradar/contentradar/internal/extract"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/pkg/models"
)

const extractCacheTTL = time.Hour

// ContentExtractor is the slice of the extractor the job handlers need.
type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string) (*models.ExtractedContent, error)
	ExtractRobust(ctx context.Context, rawURL string) (*models.ExtractedContent, error)
}

// TruthAnalyzer runs LLM analysis over extracted evidence.
type TruthAnalyzer interface {
	AnalyzeQuick(ctx context.Context, ev analysis.Evidence) (*models.AnalysisResult, error)
	AnalyzeContent(ctx context.Context, ev analysis.Evidence) (*models.ContentAnalysis, error)
}

// Embedder turns texts into vectors. Embedding failures never fail a job.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// extractCached fetches page content, serving repeat URLs from the cache.
// Fast mode is tried first; a page with no extractable body gets one robust
// pass before giving up.
func extractCached(ctx context.Context, c cache.Cache, ex ContentExtractor, rawURL string) (*models.ExtractedContent, error) {
	key := cache.ExtractKey(rawURL)
	if c != nil {
		if data, ok, err := c.Get(ctx, key); err == nil && ok {
			var cached models.ExtractedContent
			if json.Unmarshal(data, &cached) == nil {
				return &cached, nil
			}
		}
	}

	content, err := ex.Extract(ctx, rawURL)
	if errors.Is(err, extract.ErrNoContent) {
		content, err = ex.ExtractRobust(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}

	if c != nil {
		if data, err := json.Marshal(content); err == nil {
			// Best effort; a cache write failure is not worth failing the job.
			_ = c.Set(ctx, key, data, extractCacheTTL)
		}
	}
	return content, nil
}

// AnalyzeCaptureHandler handles ai.analyze jobs: extract the capture's page
// when it has a URL, run content analysis, embed, and write everything back
// onto the capture row.
type AnalyzeCaptureHandler struct {
	store     store.Store
	extractor ContentExtractor
	analyzer  TruthAnalyzer
	embedder  Embedder
	cache     cache.Cache
	logger    *slog.Logger
}

// NewAnalyzeCaptureHandler creates the ai.analyze handler. embedder and
// cache may be nil.
func NewAnalyzeCaptureHandler(st store.Store, ex ContentExtractor, an TruthAnalyzer, em Embedder, c cache.Cache, logger *slog.Logger) *AnalyzeCaptureHandler {
	return &AnalyzeCaptureHandler{
		store:     st,
		extractor: ex,
		analyzer:  an,
		embedder:  em,
		cache:     c,
		logger:    logger,
	}
}

func (h *AnalyzeCaptureHandler) Handle(ctx context.Context, job *models.Job) (json.RawMessage, error) {
	var payload models.AnalyzePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode analyze payload: %w", err)
	}
	if job.UserID == nil {
		return nil, fmt.Errorf("analyze job %s has no user", job.ID)
	}

	capture, err := h.store.GetCapture(ctx, payload.CaptureID, *job.UserID)
	if err != nil {
		return nil, fmt.Errorf("load capture: %w", err)
	}

	title := capture.Title
	content := capture.Content
	if capture.URL != nil {
		extracted, err := extractCached(ctx, h.cache, h.extractor, *capture.URL)
		if err != nil {
			h.markFailed(ctx, capture.ID, *job.UserID)
			return nil, fmt.Errorf("extract %s: %w", *capture.URL, err)
		}
		if extracted.Content != "" {
			content = extracted.Content
		}
		if title == "" {
			title = extracted.Title
		}
	}

	result, err := h.analyzer.AnalyzeContent(ctx, analysis.Evidence{
		URL:      derefOr(capture.URL, ""),
		Title:    title,
		Content:  content,
		Platform: capture.Platform,
	})
	if err != nil {
		h.markFailed(ctx, capture.ID, *job.UserID)
		return nil, fmt.Errorf("analyze capture: %w", err)
	}

	opts := []store.CaptureUpdateOption{
		store.WithSummary(result.Summary),
		store.WithAnalysisStatus(models.AnalysisStatusCompleted),
		store.WithViralScore(result.ViralScore),
	}
	if len(result.Tags) > 0 {
		opts = append(opts, store.WithTags(mergeTags(capture.Tags, result.Tags)))
	}
	if analysisJSON, err := json.Marshal(result); err == nil {
		opts = append(opts, store.WithAnalysis(analysisJSON))
	}
	if title != capture.Title {
		opts = append(opts, store.WithTitle(title))
	}
	if content != capture.Content {
		opts = append(opts, store.WithContent(content))
	}

	if h.embedder != nil && content != "" {
		vectors, err := h.embedder.Embed(ctx, []string{content})
		if err != nil {
			h.logger.Warn("embedding failed", "capture_id", capture.ID, "error", err)
		} else if len(vectors) == 1 {
			if embJSON, err := json.Marshal(vectors[0]); err == nil {
				opts = append(opts, store.WithEmbedding(embJSON))
			}
		}
	}

	if err := h.store.UpdateCapture(ctx, capture.ID, *job.UserID, opts...); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	return json.Marshal(result)
}

// markFailed flips the capture status so the UI stops showing a spinner. The
// job itself still retries; a later success overwrites the status.
func (h *AnalyzeCaptureHandler) markFailed(ctx context.Context, id uuid.UUID, userID string) {
	if err := h.store.UpdateCapture(ctx, id, userID,
		store.WithAnalysisStatus(models.AnalysisStatusFailed)); err != nil {
		h.logger.Warn("mark capture failed", "capture_id", id, "error", err)
	}
}

// TruthCheckHandler handles truth.analyze jobs: extract the page when the
// payload carries a URL, run the five-layer truth analysis, and aggregate
// any cultural moments it surfaced.
type TruthCheckHandler struct {
	store     store.Store
	extractor ContentExtractor
	analyzer  TruthAnalyzer
	cache     cache.Cache
	logger    *slog.Logger
}

// NewTruthCheckHandler creates the truth.analyze handler. cache may be nil.
func NewTruthCheckHandler(st store.Store, ex ContentExtractor, an TruthAnalyzer, c cache.Cache, logger *slog.Logger) *TruthCheckHandler {
	return &TruthCheckHandler{
		store:     st,
		extractor: ex,
		analyzer:  an,
		cache:     c,
		logger:    logger,
	}
}

func (h *TruthCheckHandler) Handle(ctx context.Context, job *models.Job) (json.RawMessage, error) {
	var payload models.TruthAnalyzePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode truth payload: %w", err)
	}
	if payload.URL == "" && payload.Content == "" {
		return nil, fmt.Errorf("truth job %s has neither url nor content", job.ID)
	}

	ev := analysis.Evidence{
		URL:      payload.URL,
		Title:    payload.Title,
		Content:  payload.Content,
		Platform: payload.Platform,
	}
	if payload.URL != "" {
		extracted, err := extractCached(ctx, h.cache, h.extractor, payload.URL)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", payload.URL, err)
		}
		ev.Content = extracted.Content
		if ev.Title == "" {
			ev.Title = extracted.Title
		}
	}

	result, err := h.analyzer.AnalyzeQuick(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("truth analysis: %w", err)
	}

	h.recordMoments(ctx, result, payload.Platform)

	return json.Marshal(result)
}

// recordMoments upserts one moment per cultural_moment line. Aggregation is
// advisory; failures are logged, never surfaced to the job.
func (h *TruthCheckHandler) recordMoments(ctx context.Context, result *models.AnalysisResult, platform string) {
	if h.store == nil {
		return
	}
	for _, title := range result.Truth.CulturalMoment {
		if title == "" {
			continue
		}
		platforms := []string{}
		if platform != "" {
			platforms = append(platforms, platform)
		}
		now := time.Now()
		if _, err := h.store.UpsertMoment(ctx, &models.Moment{
			ID:          uuid.New(),
			Title:       title,
			Description: title,
			Intensity:   1,
			Platforms:   platforms,
			FirstSeenAt: now,
			LastSeenAt:  now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			h.logger.Warn("upsert moment", "title", title, "error", err)
		}
	}
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func mergeTags(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range incoming {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

var (
	_ Handler = (*AnalyzeCaptureHandler)(nil)
	_ Handler = (*TruthCheckHandler)(nil)
)
