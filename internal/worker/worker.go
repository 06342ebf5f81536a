package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/mailinglist/internal/queue"
	"github.com/dukerupert/mailinglist/internal/telemetry"
)

// ErrStopped is returned by Submit after Shutdown has been called.
var ErrStopped = errors.New("worker: stopped")

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int

	// JobTimeout bounds a single job execution
	JobTimeout time.Duration
}

// Worker runs queued jobs on background goroutines.
type Worker struct {
	config   Config
	handlers map[string]queue.Handler
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewWorker creates a new background job worker. metrics may be nil.
func NewWorker(config Config, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}

	return &Worker{
		config:   config,
		handlers: make(map[string]queue.Handler),
		metrics:  metrics,
		logger:   logger.With("worker_id", config.WorkerID),
		sem:      make(chan struct{}, config.MaxConcurrency),
	}
}

// Register routes jobs of jobType to h. Call before the worker receives jobs.
func (w *Worker) Register(jobType string, h queue.Handler) {
	w.handlers[jobType] = h
}

// Submit schedules job for processing and returns once a slot is free.
// It satisfies queue.Handler, so a Worker can consume from any queue.
// The job runs detached from ctx cancellation.
func (w *Worker) Submit(ctx context.Context, job *queue.Job) error {
	h, ok := w.handlers[job.Type]
	if !ok {
		w.logger.Error("no handler for job type", "job_id", job.ID, "job_type", job.Type)
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		return ErrStopped
	}
	w.wg.Add(1)
	w.mu.RUnlock()

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		w.wg.Done()
		return ctx.Err()
	}

	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.sem }()
		w.process(jobCtx, h, job)
	}()

	return nil
}

// process runs a single job and records the outcome
func (w *Worker) process(ctx context.Context, h queue.Handler, job *queue.Job) {
	ctx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	start := time.Now()
	w.logger.Info("processing job", "job_id", job.ID, "job_type", job.Type)

	err := w.run(ctx, h, job)
	duration := time.Since(start)

	if w.metrics != nil {
		w.metrics.JobDuration.WithLabelValues(job.Type).Observe(duration.Seconds())
	}

	if err != nil {
		w.logger.Error("job failed",
			"job_id", job.ID,
			"job_type", job.Type,
			"duration", duration,
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.JobsFailed.WithLabelValues(job.Type, "handler").Inc()
		}
		return
	}

	w.logger.Info("job completed",
		"job_id", job.ID,
		"job_type", job.Type,
		"duration", duration,
	)
	if w.metrics != nil {
		w.metrics.JobsProcessed.WithLabelValues(job.Type).Inc()
	}
}

// run calls the handler, converting a panic into an error
func (w *Worker) run(ctx context.Context, h queue.Handler, job *queue.Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("job panicked", "job_id", job.ID, "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return h(ctx, job)
}

// Shutdown stops accepting jobs and waits for in-flight jobs to finish or for
// ctx to expire.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	w.logger.Info("worker shutting down")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
