package models

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

// Project groups captures and briefs for one piece of client work.
// Captures and briefs reference a project optionally; deleting a project
// detaches them rather than cascading.
type Project struct {
	ID          uuid.UUID  `db:"id"          json:"id"`
	UserID      string     `db:"user_id"     json:"user_id"`
	Name        string     `db:"name"        json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status"      json:"status"`
	Client      *string    `db:"client"      json:"client,omitempty"`
	Deadline    *time.Time `db:"deadline"    json:"deadline,omitempty"`
	Tags        []string   `db:"tags"        json:"tags"`
	CreatedAt   time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"  json:"updated_at"`
}
