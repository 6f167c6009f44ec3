// Package models contains shared data models used across the Content Radar codebase.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AnalysisStatusPending   = "pending"
	AnalysisStatusAnalyzing = "analyzing"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusFailed    = "failed"
)

// Capture is a user-submitted piece of content (a URL or raw text) under
// analysis. Analysis results are written back onto the row as JSON once the
// background job finishes.
type Capture struct {
	ID             uuid.UUID       `db:"id"              json:"id"`
	UserID         string          `db:"user_id"         json:"user_id"`
	ProjectID      *uuid.UUID      `db:"project_id"      json:"project_id,omitempty"`
	Title          string          `db:"title"           json:"title"`
	URL            *string         `db:"url"             json:"url,omitempty"`
	Content        string          `db:"content"         json:"content"`
	Platform       string          `db:"platform"        json:"platform"`
	Tags           []string        `db:"tags"            json:"tags"`
	Summary        *string         `db:"summary"         json:"summary,omitempty"`
	AnalysisStatus string          `db:"analysis_status" json:"analysis_status"`
	Analysis       json.RawMessage `db:"analysis"        json:"analysis,omitempty"`
	Embedding      json.RawMessage `db:"embedding"       json:"embedding,omitempty"`
	ViralScore     *float64        `db:"viral_score"     json:"viral_score,omitempty"`
	CreatedAt      time.Time       `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"      json:"updated_at"`
}

// ExtractedContent is the transient output of the content extractor. It is
// never persisted on its own; it is folded into the analysis payload/result.
type ExtractedContent struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Author  string   `json:"author,omitempty"`
	Images  []string `json:"images"`
}
