package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// Known job types. The queue itself is type-agnostic; the worker dispatches
// on these tags and fails anything it does not recognize.
const (
	JobTypeAnalyze      = "ai.analyze"
	JobTypeTruthAnalyze = "truth.analyze"
)

// Job is a durable unit of background work. The API returns a job id on
// enqueue; clients poll GET /api/v1/jobs/{id} until the status is succeeded
// or failed. A job cycles queued -> running -> (succeeded | queued | failed);
// succeeded and failed are terminal.
type Job struct {
	ID          uuid.UUID       `db:"id"           json:"id"`
	Type        string          `db:"type"         json:"type"`
	Payload     json.RawMessage `db:"payload"      json:"payload"`
	Status      string          `db:"status"       json:"status"`
	Attempts    int             `db:"attempts"     json:"attempts"`
	LastError   *string         `db:"last_error"   json:"last_error,omitempty"`
	Result      json.RawMessage `db:"result"       json:"result,omitempty"`
	UserID      *string         `db:"user_id"      json:"user_id,omitempty"`
	AvailableAt time.Time       `db:"available_at" json:"available_at"`
	CreatedAt   time.Time       `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updated_at"`
}

// Terminal reports whether the job has reached a state it can never leave.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

// AnalyzePayload is the payload for ai.analyze jobs: analyze a stored
// capture, extracting page content first when the capture carries a URL.
type AnalyzePayload struct {
	CaptureID uuid.UUID `json:"capture_id"`
}

// TruthAnalyzePayload is the payload for truth.analyze jobs. Either URL or
// Content must be set; when URL is set the worker extracts the page first.
type TruthAnalyzePayload struct {
	URL      string `json:"url,omitempty"`
	Content  string `json:"content,omitempty"`
	Title    string `json:"title,omitempty"`
	Platform string `json:"platform,omitempty"`
}
