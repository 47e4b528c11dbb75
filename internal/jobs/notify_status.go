package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/RoyalPrince700/elite-sub002/internal/notify"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/RoyalPrince700/elite-sub002/internal/worker"
)

// NotifyStatusHandler delivers order status notifications enqueued by the
// payment service after a receipt is resolved.
type NotifyStatusHandler struct {
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewNotifyStatusHandler creates a NotifyStatusHandler.
func NewNotifyStatusHandler(notifier notify.Notifier, logger *slog.Logger) *NotifyStatusHandler {
	return &NotifyStatusHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// Type implements worker.JobHandler.
func (h *NotifyStatusHandler) Type() string {
	return worker.JobTypeNotifyStatus
}

// Handle implements worker.JobHandler.
func (h *NotifyStatusHandler) Handle(ctx context.Context, job repository.Job) error {
	var payload worker.NotifyStatusPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal notify payload: %w", err)
	}

	event := notify.Event{
		OrderID:    payload.OrderID,
		CustomerID: payload.CustomerID,
		Kind:       payload.Event,
	}
	if err := h.notifier.Notify(ctx, event); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}

	h.logger.Debug("notification delivered",
		"order_id", payload.OrderID,
		"kind", payload.Event,
	)
	return nil
}
