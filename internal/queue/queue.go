// Package queue implements the durable, Postgres-backed job queue. Jobs move
// queued -> running -> (succeeded | queued | failed); leasing is an atomic
// row-level claim, so multiple worker processes can poll the same table
// without double-delivery.
package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/contentradar/contentradar/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no job exists with the given id.
	ErrNotFound = errors.New("job not found")
	// ErrStaleTransition is returned when a transition targets a job that is
	// no longer in the expected state (e.g. Succeed on a job that already
	// reached a terminal state).
	ErrStaleTransition = errors.New("stale job transition")
)

// Queue is the job mailbox contract consumed by the worker and the API layer.
type Queue interface {
	// Enqueue inserts a queued job available immediately and returns it.
	Enqueue(ctx context.Context, jobType string, payload json.RawMessage, userID *string) (*models.Job, error)
	// TakeNext atomically leases the oldest eligible queued job, moving it to
	// running. Returns nil when no job is eligible.
	TakeNext(ctx context.Context) (*models.Job, error)
	// Succeed moves a running job to succeeded and stores its result.
	Succeed(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	// RetryLater moves a running job back to queued with backoff, or to
	// failed once its attempts exceed the configured maximum.
	RetryLater(ctx context.Context, id uuid.UUID, errMsg string) error
	// Fail moves a running job directly to failed (permanent errors).
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error
	// Get returns a job by id, scoped to userID when non-nil.
	Get(ctx context.Context, id uuid.UUID, userID *string) (*models.Job, error)
}
