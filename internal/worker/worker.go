// Package worker implements the database-backed background job processor.
//
// Jobs are rows in the jobs table claimed with FOR UPDATE SKIP LOCKED, so
// multiple worker goroutines (or instances) can poll the same queue without
// double-processing. The engine's request path never depends on the worker;
// jobs carry the asynchronous concerns (billing-period resets, status
// notifications) out of the critical sections.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RoyalPrince700/elite-sub002/internal/metrics"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
)

// Worker manages background job processing with concurrent workers.
type Worker struct {
	queries  *repository.Queries
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new Worker. It must be started with Start() and stopped with
// Stop().
func New(queries *repository.Queries, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		queries:  queries,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a job handler to the worker. Call before Start().
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("Overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
	w.logger.Debug("Registered job handler", "job_type", jobType)
}

// Start begins processing jobs with the configured number of concurrent
// workers, first recovering any jobs a crashed worker left running.
func (w *Worker) Start(ctx context.Context) {
	count, err := w.queries.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	} else if count > 0 {
		w.logger.Warn("Recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	w.logger.Info("Worker started", "concurrency", w.config.Concurrency)
}

// Stop signals all workers to stop and waits for them, bounded by the
// configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some jobs may still be running")
	}
}

// runWorker is the main loop for one worker goroutine.
func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)
	logger.Debug("Worker started")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			logger.Debug("Worker stopping")
			return
		case <-ctx.Done():
			logger.Debug("Worker context cancelled")
			return
		case <-ticker.C:
			// Drain the queue before going back to sleep.
			for w.processOne(ctx, logger) {
				select {
				case <-w.stopCh:
					return
				case <-ctx.Done():
					return
				default:
				}
			}
		}
	}
}

// processOne claims and runs a single job. Returns true if a job was
// processed, false when the queue is empty.
func (w *Worker) processOne(ctx context.Context, logger *slog.Logger) bool {
	job, err := w.queries.ClaimNextJob(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("Failed to claim job", "error", err)
		}
		return false
	}

	handler, ok := w.handlers[job.JobType]
	if !ok {
		logger.Error("No handler for job type", "job_type", job.JobType, "job_id", job.ID)
		w.failJob(ctx, logger, job, fmt.Errorf("no handler registered for %q", job.JobType))
		return true
	}

	logger.Info("Processing job", "job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	start := time.Now()
	err = handler.Handle(jobCtx, job)
	cancel()

	duration := time.Since(start)
	metrics.JobDuration.WithLabelValues(job.JobType).Observe(duration.Seconds())

	if err != nil {
		logger.Error("Job failed", "job_id", job.ID, "job_type", job.JobType, "error", err, "duration", duration)
		metrics.JobsTotal.WithLabelValues(job.JobType, "failed").Inc()
		w.failJob(ctx, logger, job, err)
		return true
	}

	if err := w.queries.CompleteJob(ctx, job.ID); err != nil {
		logger.Error("Failed to mark job completed", "job_id", job.ID, "error", err)
	}
	metrics.JobsTotal.WithLabelValues(job.JobType, "completed").Inc()
	logger.Info("Job completed", "job_id", job.ID, "job_type", job.JobType, "duration", duration)
	return true
}

// failJob records a failure, rescheduling unless attempts are exhausted.
func (w *Worker) failJob(ctx context.Context, logger *slog.Logger, job repository.Job, jobErr error) {
	err := w.queries.FailJob(ctx, repository.FailJobParams{
		ID:            job.ID,
		LastError:     jobErr.Error(),
		RetryDelaySec: w.config.RetryDelay.Seconds(),
	})
	if err != nil {
		logger.Error("Failed to record job failure", "job_id", job.ID, "error", err)
	}
}
