package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contentradar/contentradar/internal/config"
	"github.com/contentradar/contentradar/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQueue implements Queue over the jobs table using pgx/v5.
type PostgresQueue struct {
	pool        *pgxpool.Pool
	backoff     Strategy
	maxAttempts int
}

// NewPostgresQueue creates a queue with the given retry tuning.
func NewPostgresQueue(pool *pgxpool.Pool, cfg config.QueueConfig) *PostgresQueue {
	var strategy Strategy = NewExponential(cfg.Backoff, cfg.BackoffCap)
	if cfg.Backoff <= 0 {
		strategy = DefaultStrategy()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &PostgresQueue{pool: pool, backoff: strategy, maxAttempts: maxAttempts}
}

const jobColumns = `id, type, payload, status, attempts, last_error, result, user_id, available_at, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts, &j.LastError,
		&j.Result, &j.UserID, &j.AvailableAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (q *PostgresQueue) Enqueue(ctx context.Context, jobType string, payload json.RawMessage, userID *string) (*models.Job, error) {
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	now := time.Now().UTC()
	job, err := scanJob(q.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, type, payload, status, attempts, user_id, available_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, $5, $6, $6, $6)
		 RETURNING `+jobColumns,
		uuid.New(), jobType, payload, models.JobStatusQueued, userID, now))
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// TakeNext claims the oldest eligible queued job in a single statement. The
// FOR UPDATE SKIP LOCKED subselect plus the status guard in the outer UPDATE
// make the claim atomic: no two callers can lease the same row, even across
// processes.
func (q *PostgresQueue) TakeNext(ctx context.Context) (*models.Job, error) {
	job, err := scanJob(q.pool.QueryRow(ctx,
		`UPDATE jobs SET status = $1, updated_at = NOW()
		 WHERE id = (
		   SELECT id FROM jobs
		   WHERE status = $2 AND available_at <= NOW()
		   ORDER BY available_at, id
		   LIMIT 1
		   FOR UPDATE SKIP LOCKED
		 ) AND status = $2
		 RETURNING `+jobColumns,
		models.JobStatusRunning, models.JobStatusQueued))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take next job: %w", err)
	}
	return job, nil
}

func (q *PostgresQueue) Succeed(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	if result == nil {
		result = json.RawMessage(`{}`)
	}
	tag, err := q.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, result = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		models.JobStatusSucceeded, result, id, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("succeed job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return q.staleOrMissing(ctx, id)
	}
	return nil
}

// RetryLater requeues a running job with its attempt count incremented and
// available_at pushed into the future by the backoff strategy. Once the new
// attempt count exceeds the configured maximum the job is failed instead.
func (q *PostgresQueue) RetryLater(ctx context.Context, id uuid.UUID, errMsg string) error {
	var attempts int
	err := q.pool.QueryRow(ctx,
		`SELECT attempts FROM jobs WHERE id = $1 AND status = $2`,
		id, models.JobStatusRunning).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return q.staleOrMissing(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get job attempts: %w", err)
	}

	attempts++
	if attempts > q.maxAttempts {
		tag, err := q.pool.Exec(ctx,
			`UPDATE jobs SET status = $1, attempts = $2, last_error = $3, updated_at = NOW()
			 WHERE id = $4 AND status = $5`,
			models.JobStatusFailed, attempts, errMsg, id, models.JobStatusRunning)
		if err != nil {
			return fmt.Errorf("fail exhausted job: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return q.staleOrMissing(ctx, id)
		}
		return nil
	}

	delay := q.backoff.Delay(attempts)
	tag, err := q.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, attempts = $2, last_error = $3,
		        available_at = NOW() + $4::interval, updated_at = NOW()
		 WHERE id = $5 AND status = $6`,
		models.JobStatusQueued, attempts, errMsg,
		fmt.Sprintf("%f seconds", delay.Seconds()), id, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return q.staleOrMissing(ctx, id)
	}
	return nil
}

func (q *PostgresQueue) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	tag, err := q.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, last_error = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		models.JobStatusFailed, errMsg, id, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return q.staleOrMissing(ctx, id)
	}
	return nil
}

func (q *PostgresQueue) Get(ctx context.Context, id uuid.UUID, userID *string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	args := []any{id}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}
	job, err := scanJob(q.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// staleOrMissing distinguishes "job does not exist" from "job exists but is
// not running" after a zero-row conditional update.
func (q *PostgresQueue) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var status string
	err := q.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}
	return fmt.Errorf("%w: job is %s, expected running", ErrStaleTransition, status)
}

// Compile-time check that PostgresQueue implements Queue.
var _ Queue = (*PostgresQueue)(nil)
