// Package notify defines the notification delivery seam.
//
// Actual delivery (email, in-app) is an external collaborator; the engine
// only decides WHEN a customer should hear about an order event and hands the
// event to a Notifier. LogNotifier is the development stand-in.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Event describes an order lifecycle moment a customer should be told about.
type Event struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	// Kind names the moment, e.g. "payment_confirmed" or "receipt_rejected".
	Kind string
}

// Notifier delivers order status events to customers.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the structured log instead of delivering
// them. Used in development and as the default when no delivery collaborator
// is wired.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, event Event) error {
	n.Logger.Info("notification",
		"order_id", event.OrderID,
		"customer_id", event.CustomerID,
		"kind", event.Kind,
	)
	return nil
}
