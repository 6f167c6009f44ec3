package models

import (
	"time"

	"github.com/google/uuid"
)

// Moment is a cultural moment aggregated from captures whose analysis
// surfaced the same cultural signal. Intensity grows as more captures
// attach to the moment.
type Moment struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	Title       string    `db:"title"        json:"title"`
	Description string    `db:"description"  json:"description"`
	Intensity   int       `db:"intensity"    json:"intensity"`
	Platforms   []string  `db:"platforms"    json:"platforms"`
	FirstSeenAt time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt  time.Time `db:"last_seen_at"  json:"last_seen_at"`
	CreatedAt   time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"    json:"updated_at"`
}
