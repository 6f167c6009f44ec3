// Package analysis orchestrates LLM calls for the truth-analysis framework:
// prompt construction, deterministic sampling, fallback-model retry, and
// normalization into schema-stable results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contentradar/contentradar/internal/ai"
	"github.com/contentradar/contentradar/internal/config"
	"github.com/contentradar/contentradar/pkg/models"
)

// ErrAnalysis is returned when both the primary and fallback model calls
// fail. The worker treats it as retryable.
var ErrAnalysis = errors.New("analysis failed")

// promptBudget caps how much evidence text is embedded in a prompt.
const promptBudget = 8000

// Evidence is the input to an analysis run: extracted or captured text plus
// its provenance.
type Evidence struct {
	URL      string
	Title    string
	Content  string
	Platform string
}

// Analyzer runs truth and content analysis against a configured provider.
type Analyzer struct {
	provider      models.AIProvider
	model         string
	fallbackModel string
	logger        *slog.Logger
}

func NewAnalyzer(provider models.AIProvider, cfg config.AIConfig, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		provider:      provider,
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		logger:        logger,
	}
}

const truthSystem = "You are a strategic intelligence analyst specializing in the Truth Analysis Framework. Always respond with valid JSON."

const truthPromptFormat = `Analyze this content through the Truth Analysis Framework layers.

CONTENT TO ANALYZE:
Title: %s
Platform: %s
URL: %s
Content: %s

Apply the framework:

1. FACT LAYER: extract verifiable claims and data points.
2. OBSERVATION LAYER: identify behavior patterns and audience signals without interpretation.
3. INSIGHT LAYER: draw strategic implications from the observations.
4. HUMAN TRUTH LAYER: uncover the emotional and psychological drivers behind the behavior.
5. CULTURAL MOMENT LAYER: name the broader cultural moment this content taps into.

Then derive strategic focus areas, competitive intelligence notes, and audience cohorts.

Respond in JSON:
{
  "fact": ["verifiable claim"],
  "observation": ["observable behavior or pattern"],
  "insight": ["strategic implication"],
  "human_truth": ["deeper human need or emotion"],
  "cultural_moment": ["cultural moment or trend"],
  "strategic_focus": ["recommended focus area"],
  "competitive_intelligence": ["competitive note"],
  "cohorts": [{
    "name": "cohort name",
    "description": "who they are",
    "behavior_patterns": ["pattern"],
    "platforms": ["platform"],
    "size": "small|medium|large",
    "engagement": "low|medium|high"
  }]
}`

const contentSystem = "You are a strategic analyst. Always respond with valid JSON."

const contentPromptFormat = `Analyze this content for a strategist's capture feed.

Title: %s
Platform: %s
Content: %s

Respond in JSON:
{
  "summary": "concise strategic summary",
  "tags": ["lowercase-tag"],
  "viral_score": 0-10
}`

// AnalyzeQuick runs the full truth-analysis prompt over the evidence and
// returns a schema-stable result. The evidence text is truncated to the
// prompt budget before embedding.
func (a *Analyzer) AnalyzeQuick(ctx context.Context, ev Evidence) (*models.AnalysisResult, error) {
	prompt := fmt.Sprintf(truthPromptFormat,
		orDefault(ev.Title, "No title"),
		orDefault(ev.Platform, "unknown"),
		orDefault(ev.URL, "none"),
		truncateEvidence(ev.Content))

	raw, model, err := a.complete(ctx, truthSystem, prompt, 2000)
	if err != nil {
		return nil, err
	}

	result := ai.NormalizeAnalysis(raw)
	result.Model = model
	result.Provider = a.provider.Name()
	return &result, nil
}

// AnalyzeContent runs the lighter capture analysis: summary, tags, and a
// viral score.
func (a *Analyzer) AnalyzeContent(ctx context.Context, ev Evidence) (*models.ContentAnalysis, error) {
	prompt := fmt.Sprintf(contentPromptFormat,
		orDefault(ev.Title, "No title"),
		orDefault(ev.Platform, "unknown"),
		truncateEvidence(ev.Content))

	raw, model, err := a.complete(ctx, contentSystem, prompt, 600)
	if err != nil {
		return nil, err
	}

	result := ai.NormalizeContent(raw)
	result.Model = model
	result.Provider = a.provider.Name()
	return &result, nil
}

// complete issues the primary-model call and retries exactly once against a
// distinct fallback model when the primary raises. Returns the raw
// completion and the model that produced it.
func (a *Analyzer) complete(ctx context.Context, system, prompt string, maxTokens int) (string, string, error) {
	raw, err := a.provider.Complete(ctx, models.CompletionRequest{
		Model:       a.model,
		System:      system,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   maxTokens,
		JSONOnly:    true,
	})
	if err == nil {
		return raw, a.model, nil
	}

	if a.fallbackModel == "" || a.fallbackModel == a.model {
		return "", "", fmt.Errorf("%w: model %s: %v", ErrAnalysis, a.model, err)
	}

	a.logger.Warn("primary model failed, retrying with fallback",
		"model", a.model, "fallback_model", a.fallbackModel, "error", err)

	raw, fallbackErr := a.provider.Complete(ctx, models.CompletionRequest{
		Model:       a.fallbackModel,
		System:      system,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   maxTokens,
		JSONOnly:    true,
	})
	if fallbackErr != nil {
		return "", "", fmt.Errorf("%w: model %s: %v; fallback %s: %v",
			ErrAnalysis, a.model, err, a.fallbackModel, fallbackErr)
	}
	return raw, a.fallbackModel, nil
}

func truncateEvidence(s string) string {
	runes := []rune(s)
	if len(runes) <= promptBudget {
		return s
	}
	return string(runes[:promptBudget])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
