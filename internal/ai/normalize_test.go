package ai_test

import (
	"testing"

	"github.com/contentradar/contentradar/internal/ai"
	"github.com/contentradar/contentradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnalysis_NotJSON(t *testing.T) {
	got := ai.NormalizeAnalysis("not json")

	// Fully-shaped default object, every list present and empty.
	assert.Equal(t, []string{}, got.Truth.Fact)
	assert.Equal(t, []string{}, got.Truth.Observation)
	assert.Equal(t, []string{}, got.Truth.Insight)
	assert.Equal(t, []string{}, got.Truth.HumanTruth)
	assert.Equal(t, []string{}, got.Truth.CulturalMoment)
	assert.Equal(t, []string{}, got.Strategic.StrategicFocus)
	assert.Equal(t, []string{}, got.Strategic.CompetitiveIntelligence)
	assert.Equal(t, []models.Cohort{}, got.Cohorts)
}

func TestNormalizeAnalysis_FullResponse(t *testing.T) {
	raw := `{
		"fact": ["sales doubled"],
		"observation": ["fans repost clips"],
		"insight": ["nostalgia drives shares"],
		"human_truth": ["people crave belonging"],
		"cultural_moment": ["retro revival"],
		"strategic_focus": ["lean into UGC"],
		"competitive_intelligence": ["rival brand is slower"],
		"cohorts": [{
			"name": "Collectors",
			"description": "Completionist fans",
			"behavior_patterns": ["buys variants"],
			"platforms": ["instagram"],
			"size": "Large",
			"engagement": "HIGH"
		}]
	}`
	got := ai.NormalizeAnalysis(raw)

	assert.Equal(t, []string{"sales doubled"}, got.Truth.Fact)
	assert.Equal(t, []string{"retro revival"}, got.Truth.CulturalMoment)
	assert.Equal(t, []string{"lean into UGC"}, got.Strategic.StrategicFocus)
	require.Len(t, got.Cohorts, 1)
	assert.Equal(t, "Collectors", got.Cohorts[0].Name)
	// Enums are case-normalized.
	assert.Equal(t, "large", got.Cohorts[0].Size)
	assert.Equal(t, "high", got.Cohorts[0].Engagement)
}

func TestNormalizeAnalysis_PartialResponseFillsDefaults(t *testing.T) {
	got := ai.NormalizeAnalysis(`{"fact": ["only facts"]}`)

	assert.Equal(t, []string{"only facts"}, got.Truth.Fact)
	assert.Equal(t, []string{}, got.Truth.Observation)
	assert.Equal(t, []string{}, got.Strategic.StrategicFocus)
	assert.Equal(t, []models.Cohort{}, got.Cohorts)
}

func TestNormalizeAnalysis_InvalidCohortEnumsBlanked(t *testing.T) {
	got := ai.NormalizeAnalysis(`{"cohorts": [{"name": "X", "size": "gigantic", "engagement": "extreme"}]}`)

	require.Len(t, got.Cohorts, 1)
	assert.Equal(t, "", got.Cohorts[0].Size)
	assert.Equal(t, "", got.Cohorts[0].Engagement)
	assert.Equal(t, []string{}, got.Cohorts[0].BehaviorPatterns)
	assert.Equal(t, []string{}, got.Cohorts[0].Platforms)
}

func TestNormalizeAnalysis_StripsCodeFences(t *testing.T) {
	raw := "```json\n{\"fact\": [\"fenced fact\"]}\n```"
	got := ai.NormalizeAnalysis(raw)

	assert.Equal(t, []string{"fenced fact"}, got.Truth.Fact)
}

func TestNormalizeContent_NotJSON(t *testing.T) {
	got := ai.NormalizeContent("oops")

	assert.Equal(t, "", got.Summary)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, 0.0, got.ViralScore)
}

func TestNormalizeContent_ClampsViralScore(t *testing.T) {
	assert.Equal(t, 10.0, ai.NormalizeContent(`{"viral_score": 42}`).ViralScore)
	assert.Equal(t, 0.0, ai.NormalizeContent(`{"viral_score": -3}`).ViralScore)
	assert.Equal(t, 7.5, ai.NormalizeContent(`{"viral_score": 7.5}`).ViralScore)
}
