package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const jobColumns = `id, job_type, payload, status, priority, attempts, max_attempts, last_error, scheduled_at, started_at, completed_at, created_at`

func scanJob(row interface{ Scan(...interface{}) error }) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID,
		&j.JobType,
		&j.Payload,
		&j.Status,
		&j.Priority,
		&j.Attempts,
		&j.MaxAttempts,
		&j.LastError,
		&j.ScheduledAt,
		&j.StartedAt,
		&j.CompletedAt,
		&j.CreatedAt,
	)
	return j, err
}

const enqueueJob = `
INSERT INTO jobs (job_type, payload, status, priority, max_attempts, scheduled_at)
VALUES ($1, $2, 'pending', $3, $4, $5)
RETURNING ` + jobColumns + `
`

// EnqueueJobParams holds the arguments for enqueuing a background job.
type EnqueueJobParams struct {
	JobType     string
	Payload     []byte
	Priority    int32
	MaxAttempts int32
	ScheduledAt time.Time
}

// EnqueueJob inserts a new pending job.
func (q *Queries) EnqueueJob(ctx context.Context, arg EnqueueJobParams) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, enqueueJob,
		arg.JobType,
		arg.Payload,
		arg.Priority,
		arg.MaxAttempts,
		arg.ScheduledAt,
	))
}

const claimNextJob = `
UPDATE jobs
SET status = 'running',
    attempts = attempts + 1,
    started_at = now()
WHERE id = (
    SELECT id
    FROM jobs
    WHERE status = 'pending'
      AND scheduled_at <= now()
    ORDER BY priority DESC, scheduled_at ASC
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING ` + jobColumns + `
`

// ClaimNextJob atomically claims the highest-priority runnable job. SKIP
// LOCKED lets concurrent workers poll without contending on the same row.
// Returns sql.ErrNoRows when the queue is empty.
func (q *Queries) ClaimNextJob(ctx context.Context) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, claimNextJob))
}

const completeJob = `
UPDATE jobs
SET status = 'completed',
    completed_at = now()
WHERE id = $1
`

// CompleteJob marks a running job as completed.
func (q *Queries) CompleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, completeJob, id)
	return err
}

const failJob = `
UPDATE jobs
SET status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
    last_error = $2,
    scheduled_at = CASE WHEN attempts >= max_attempts THEN scheduled_at ELSE now() + make_interval(secs => $3) END
WHERE id = $1
`

// FailJobParams holds the arguments for recording a job failure.
type FailJobParams struct {
	ID            uuid.UUID
	LastError     string
	RetryDelaySec float64
}

// FailJob records a failure, rescheduling the job unless its attempts are
// exhausted.
func (q *Queries) FailJob(ctx context.Context, arg FailJobParams) error {
	_, err := q.db.ExecContext(ctx, failJob, arg.ID, arg.LastError, arg.RetryDelaySec)
	return err
}

const recoverStaleJobs = `
UPDATE jobs
SET status = 'pending',
    started_at = NULL
WHERE status = 'running'
  AND started_at < now() - make_interval(secs => $1)
`

// RecoverStaleJobs resets jobs stuck in running state longer than the
// threshold, handling workers that crashed mid-job. Returns the number of
// jobs recovered.
func (q *Queries) RecoverStaleJobs(ctx context.Context, thresholdSec float64) (int64, error) {
	result, err := q.db.ExecContext(ctx, recoverStaleJobs, thresholdSec)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
