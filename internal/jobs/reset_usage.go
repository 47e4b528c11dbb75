// Package jobs contains the background job handlers run by the worker.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/RoyalPrince700/elite-sub002/internal/metrics"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/RoyalPrince700/elite-sub002/internal/worker"
)

// ResetUsageHandler rolls active subscriptions whose billing period has
// ended into their next period with a zeroed usage counter. The job is
// enqueued on a schedule by the server process; running it twice is harmless
// because the period-end guard only matches lapsed rows.
type ResetUsageHandler struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewResetUsageHandler creates a ResetUsageHandler.
func NewResetUsageHandler(queries *repository.Queries, logger *slog.Logger) *ResetUsageHandler {
	return &ResetUsageHandler{
		queries: queries,
		logger:  logger,
	}
}

// Type implements worker.JobHandler.
func (h *ResetUsageHandler) Type() string {
	return worker.JobTypeResetUsage
}

// Handle implements worker.JobHandler.
func (h *ResetUsageHandler) Handle(ctx context.Context, job repository.Job) error {
	count, err := h.queries.ResetLapsedSubscriptionPeriods(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if count > 0 {
		metrics.SubscriptionPeriodsReset.Add(float64(count))
		h.logger.Info("billing periods reset", "subscriptions", count)
	}
	return nil
}
