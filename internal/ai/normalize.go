package ai

import (
	"encoding/json"
	"strings"

	"github.com/contentradar/contentradar/pkg/models"
)

// rawAnalysis matches the flat JSON shape the model is prompted to emit.
type rawAnalysis struct {
	Fact                    []string    `json:"fact"`
	Observation             []string    `json:"observation"`
	Insight                 []string    `json:"insight"`
	HumanTruth              []string    `json:"human_truth"`
	CulturalMoment          []string    `json:"cultural_moment"`
	StrategicFocus          []string    `json:"strategic_focus"`
	CompetitiveIntelligence []string    `json:"competitive_intelligence"`
	Cohorts                 []rawCohort `json:"cohorts"`
}

type rawCohort struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	BehaviorPatterns []string `json:"behavior_patterns"`
	Platforms        []string `json:"platforms"`
	Size             string   `json:"size"`
	Engagement       string   `json:"engagement"`
}

type rawContent struct {
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	ViralScore float64  `json:"viral_score"`
}

// NormalizeAnalysis parses a raw model completion into a fully-shaped
// AnalysisResult. Parse failures are treated as an empty object, so the
// result is always schema-conformant: every list field is an empty slice
// rather than nil, and cohort enums outside the accepted values are blanked.
func NormalizeAnalysis(raw string) models.AnalysisResult {
	var parsed rawAnalysis
	// Best effort only. A completion of "not json" yields the zero value.
	_ = json.Unmarshal([]byte(stripFences(raw)), &parsed)

	result := models.AnalysisResult{
		Truth: models.TruthResult{
			Fact:           orEmpty(parsed.Fact),
			Observation:    orEmpty(parsed.Observation),
			Insight:        orEmpty(parsed.Insight),
			HumanTruth:     orEmpty(parsed.HumanTruth),
			CulturalMoment: orEmpty(parsed.CulturalMoment),
		},
		Strategic: models.StrategicResult{
			StrategicFocus:          orEmpty(parsed.StrategicFocus),
			CompetitiveIntelligence: orEmpty(parsed.CompetitiveIntelligence),
		},
		Cohorts: []models.Cohort{},
	}

	for _, c := range parsed.Cohorts {
		result.Cohorts = append(result.Cohorts, models.Cohort{
			Name:             c.Name,
			Description:      c.Description,
			BehaviorPatterns: orEmpty(c.BehaviorPatterns),
			Platforms:        orEmpty(c.Platforms),
			Size:             validEnum(c.Size, models.CohortSizeSmall, models.CohortSizeMedium, models.CohortSizeLarge),
			Engagement:       validEnum(c.Engagement, models.CohortEngagementLow, models.CohortEngagementMedium, models.CohortEngagementHigh),
		})
	}
	return result
}

// NormalizeContent parses a raw model completion into a ContentAnalysis with
// the same degrade-to-defaults policy. Viral scores are clamped to [0, 10].
func NormalizeContent(raw string) models.ContentAnalysis {
	var parsed rawContent
	_ = json.Unmarshal([]byte(stripFences(raw)), &parsed)

	score := parsed.ViralScore
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return models.ContentAnalysis{
		Summary:    parsed.Summary,
		Tags:       orEmpty(parsed.Tags),
		ViralScore: score,
	}
}

// stripFences removes a markdown code fence wrapper if the model added one
// despite the JSON-only response mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func validEnum(v string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return ""
}
