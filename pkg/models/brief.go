package models

import (
	"time"

	"github.com/google/uuid"
)

// Brief section identifiers used by the Define -> Shift -> Deliver framework.
const (
	BriefSectionDefine  = "define"
	BriefSectionShift   = "shift"
	BriefSectionDeliver = "deliver"
)

// Brief is a curated slide-deck-like artifact assembled from captures for
// client delivery.
type Brief struct {
	ID          uuid.UUID  `db:"id"          json:"id"`
	UserID      string     `db:"user_id"     json:"user_id"`
	ProjectID   *uuid.UUID `db:"project_id"  json:"project_id,omitempty"`
	Title       string     `db:"title"       json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status"      json:"status"`
	CreatedAt   time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"  json:"updated_at"`
}

// BriefSlide assigns a capture to a position inside one brief section.
type BriefSlide struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	BriefID   uuid.UUID `db:"brief_id"   json:"brief_id"`
	CaptureID uuid.UUID `db:"capture_id" json:"capture_id"`
	Section   string    `db:"section"    json:"section"`
	Position  int       `db:"position"   json:"position"`
	Notes     *string   `db:"notes"      json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
