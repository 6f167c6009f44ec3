// Package worker runs the polling loop that drains the job queue. One worker
// per process; each tick leases at most one job and dispatches it to the
// handler registered for its type.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/contentradar/contentradar/internal/cache"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/pkg/models"
)

// jobStatusTTL bounds how stale a mirrored status can get if the worker dies
// between transitions. The row stays authoritative either way.
const jobStatusTTL = 30 * time.Minute

// Handler processes a leased job and returns the result payload to persist.
type Handler interface {
	Handle(ctx context.Context, job *models.Job) (json.RawMessage, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *models.Job) (json.RawMessage, error)

func (f HandlerFunc) Handle(ctx context.Context, job *models.Job) (json.RawMessage, error) {
	return f(ctx, job)
}

// Worker polls the queue on a fixed interval and dispatches jobs by type.
type Worker struct {
	queue    queue.Queue
	handlers map[string]Handler
	interval time.Duration
	cache    cache.Cache
	logger   *slog.Logger

	// busy guards against overlapping ticks from the same process.
	busy atomic.Bool
	// inflight tracks the running tick so shutdown can drain it.
	inflight sync.WaitGroup
}

// New creates a worker. Register handlers before calling Run.
func New(q queue.Queue, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	return &Worker{
		queue:    q,
		handlers: make(map[string]Handler),
		interval: interval,
		logger:   logger,
	}
}

// Register binds a handler to a job type. Not safe to call after Run starts.
func (w *Worker) Register(jobType string, h Handler) {
	w.handlers[jobType] = h
}

// UseStatusCache mirrors status transitions into the cache so poll endpoints
// can answer in-flight jobs without a database read. Optional; not safe to
// call after Run starts.
func (w *Worker) UseStatusCache(c cache.Cache) {
	w.cache = c
}

// cacheStatus is best-effort; a cache outage never affects the job.
func (w *Worker) cacheStatus(ctx context.Context, id uuid.UUID, status string) {
	if w.cache == nil {
		return
	}
	if err := w.cache.SetJobStatus(ctx, id, status, jobStatusTTL); err != nil {
		w.logger.Warn("cache job status", "job_id", id, "error", err)
	}
}

// dropStatus evicts the cached status once a job is terminal, so polls fall
// through to the row that carries the result.
func (w *Worker) dropStatus(ctx context.Context, id uuid.UUID) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Delete(ctx, cache.JobStatusKey(id)); err != nil {
		w.logger.Warn("evict job status", "job_id", id, "error", err)
	}
}

// Run polls until ctx is cancelled. A tick is skipped while the previous
// tick's job is still in flight, so at most one job per process is running
// at any time. On cancellation Run waits for the in-flight job to reach a
// terminal transition before returning, so a clean shutdown never leaves a
// lease stranded in running.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.inflight.Wait()
			w.logger.Info("worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if !w.busy.CompareAndSwap(false, true) {
				continue
			}
			w.inflight.Add(1)
			go func() {
				defer w.inflight.Done()
				defer w.busy.Store(false)
				w.tick(ctx)
			}()
		}
	}
}

// tick leases at most one job and runs it to a transition.
func (w *Worker) tick(ctx context.Context) {
	job, err := w.queue.TakeNext(ctx)
	if err != nil {
		// Storage errors are fatal for this tick only; the next tick retries.
		w.logger.Error("take next job", "error", err)
		return
	}
	if job == nil {
		return
	}

	log := w.logger.With("job_id", job.ID, "job_type", job.Type, "attempts", job.Attempts)

	// Transitions must land even when ctx is cancelled mid-job; otherwise a
	// graceful shutdown would strand the lease in running.
	tctx := context.WithoutCancel(ctx)
	w.cacheStatus(tctx, job.ID, models.JobStatusRunning)

	handler, ok := w.handlers[job.Type]
	if !ok {
		log.Warn("unknown job type")
		if err := w.queue.Fail(tctx, job.ID, fmt.Sprintf("unknown job type: %s", job.Type)); err != nil {
			log.Error("fail job", "error", err)
		}
		w.dropStatus(tctx, job.ID)
		return
	}

	result, handleErr := w.runHandler(ctx, handler, job)
	if handleErr != nil {
		log.Warn("job failed, scheduling retry", "error", handleErr)
		if err := w.queue.RetryLater(tctx, job.ID, handleErr.Error()); err != nil {
			log.Error("retry job", "error", err)
		}
		// RetryLater may have exhausted attempts and gone terminal; evict so
		// the next poll reads the row either way.
		w.dropStatus(tctx, job.ID)
		return
	}

	if err := w.queue.Succeed(tctx, job.ID, result); err != nil {
		log.Error("succeed job", "error", err)
		return
	}
	w.dropStatus(tctx, job.ID)
	log.Info("job succeeded")
}

// runHandler invokes the handler with panic isolation: a panicking handler
// is converted into a retryable error instead of crashing the loop.
func (w *Worker) runHandler(ctx context.Context, h Handler, job *models.Job) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, job)
}
