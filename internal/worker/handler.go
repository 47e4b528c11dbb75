package worker

import (
	"context"

	"github.com/RoyalPrince700/elite-sub002/internal/repository"
)

// JobHandler processes one type of background job.
type JobHandler interface {
	// Type returns the job type string this handler owns. Must be unique
	// across registered handlers.
	Type() string

	// Handle processes a claimed job. A returned error reschedules the job
	// until its attempts are exhausted.
	Handle(ctx context.Context, job repository.Job) error
}
