package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/google/uuid"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeResetUsage   = "reset_usage"
	JobTypeNotifyStatus = "notify_status"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// defaultMaxAttempts bounds retries for jobs enqueued without an explicit
// override.
const defaultMaxAttempts = 3

// ResetUsagePayload is the payload for billing-period reset jobs. The job
// itself scans for lapsed periods, so the payload carries nothing.
type ResetUsagePayload struct{}

// NotifyStatusPayload is the payload for order status notification jobs.
type NotifyStatusPayload struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Event      string    `json:"event"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob enqueues a job of the given type with a JSON payload.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: defaultMaxAttempts,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	return queries.EnqueueJob(ctx, params)
}
