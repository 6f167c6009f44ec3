package models

import "context"

// Cohort size and engagement enums accepted from the model. Anything else is
// normalized to the zero value "".
const (
	CohortSizeSmall  = "small"
	CohortSizeMedium = "medium"
	CohortSizeLarge  = "large"

	CohortEngagementLow    = "low"
	CohortEngagementMedium = "medium"
	CohortEngagementHigh   = "high"
)

// TruthResult is the five-layer truth analysis taxonomy. Every field is a
// string array and defaults to empty, never nil, regardless of what the
// model returned.
type TruthResult struct {
	Fact           []string `json:"fact"`
	Observation    []string `json:"observation"`
	Insight        []string `json:"insight"`
	HumanTruth     []string `json:"human_truth"`
	CulturalMoment []string `json:"cultural_moment"`
}

// StrategicResult carries strategic scoring derived from the truth layers.
type StrategicResult struct {
	StrategicFocus          []string `json:"strategic_focus"`
	CompetitiveIntelligence []string `json:"competitive_intelligence"`
}

// Cohort describes an audience segment surfaced by the analysis.
type Cohort struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	BehaviorPatterns []string `json:"behavior_patterns"`
	Platforms        []string `json:"platforms"`
	Size             string   `json:"size"`
	Engagement       string   `json:"engagement"`
}

// AnalysisResult is the schema-stable output of a truth analysis run. The
// shape is identical whether the call was served by the primary model or the
// fallback.
type AnalysisResult struct {
	Truth     TruthResult     `json:"result_truth"`
	Strategic StrategicResult `json:"result_strategic"`
	Cohorts   []Cohort        `json:"result_cohorts"`
	Model     string          `json:"model,omitempty"`
	Provider  string          `json:"provider,omitempty"`
}

// ContentAnalysis is the lighter output of an ai.analyze job: a strategic
// summary, tags, and a viral score for the capture card.
type ContentAnalysis struct {
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	ViralScore float64  `json:"viral_score"`
	Model      string   `json:"model,omitempty"`
	Provider   string   `json:"provider,omitempty"`
}

// CompletionRequest is a single non-streaming LLM call. JSONOnly asks the
// provider for a strict JSON-object response mode.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSONOnly    bool
}

// AIProvider is the core interface all LLM integrations implement. Never
// call a specific provider directly — always inject this interface.
type AIProvider interface {
	// Complete issues one request and returns the raw completion text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "openai", "openrouter").
	Name() string
}
