// Package service contains the business logic layer.
//
// This file implements the order service: creation of retouching orders and
// the trigger-driven advancement of their status. The service exclusively
// owns order status; the transition table itself lives in the domain package.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/metrics"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/google/uuid"
)

// transitionRetries bounds the reload-and-retry loop when a guarded status
// update loses a race to a concurrent transition.
const transitionRetries = 3

// =============================================================================
// Interface Definition
// =============================================================================

// CreateOrderParams contains the parameters for creating an order.
// SubscriptionID must reference a subscription the allocator has already
// reserved quota against; when nil the order is pay-per-image and its price
// is computed at creation.
type CreateOrderParams struct {
	CustomerID     uuid.UUID
	SubscriptionID *uuid.UUID
	ImageCount     int32
}

// OrderService defines operations on retouching orders.
type OrderService interface {
	// Create creates an order in the pending state. The order machine never
	// drives quota reservation itself; subscription-funded orders require a
	// prior successful allocation, and the named subscription must be an
	// active subscription owned by the ordering customer (foreign or
	// unknown IDs answer domain.ENOTFOUND).
	Create(ctx context.Context, params CreateOrderParams) (*domain.Order, error)

	// GetByID retrieves an order. Customers can only see their own orders.
	GetByID(ctx context.Context, id uuid.UUID, actor auth.Actor) (*domain.Order, error)

	// ListForCustomer returns a customer's orders, newest first.
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)

	// Transition fires a trigger against the order's state machine.
	// Re-invoking a trigger that has already been applied is a no-op
	// success; any other trigger from an invalid source state fails with
	// domain.ETRANSITION and leaves the order unchanged. The actor's role
	// must be permitted for the trigger (domain.EFORBIDDEN otherwise), and
	// customer triggers must come from the owning customer.
	Transition(ctx context.Context, orderID uuid.UUID, trigger domain.Trigger, actor auth.Actor) (*domain.Order, error)
}

// =============================================================================
// Implementation
// =============================================================================

type orderService struct {
	queries *repository.Queries
	quoter  PriceQuoter
	logger  *slog.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(queries *repository.Queries, quoter PriceQuoter, logger *slog.Logger) OrderService {
	return &orderService{
		queries: queries,
		quoter:  quoter,
		logger:  logger,
	}
}

// Create creates an order in the pending state.
func (s *orderService) Create(ctx context.Context, params CreateOrderParams) (*domain.Order, error) {
	const op = "order.create"

	if params.ImageCount <= 0 {
		return nil, domain.Invalid(op, "image count must be positive")
	}

	var price sql.NullInt64
	if params.SubscriptionID == nil {
		price = sql.NullInt64{Int64: s.quoter.Quote(params.ImageCount), Valid: true}
	} else {
		// A subscription-funded order consumes no price; the subscription
		// must exist, belong to the ordering customer, and be in a state
		// the allocator could have reserved against.
		sub, err := s.queries.GetSubscriptionByID(ctx, *params.SubscriptionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFound(op, "subscription", params.SubscriptionID.String())
			}
			return nil, domain.Internal(err, op, "failed to get subscription")
		}
		if sub.CustomerID != params.CustomerID {
			// Do not leak another customer's subscription IDs.
			return nil, domain.NotFound(op, "subscription", params.SubscriptionID.String())
		}
		if domain.SubscriptionStatus(sub.Status) != domain.SubscriptionStatusActive {
			return nil, domain.Conflict(op, "subscription is not active")
		}
	}

	row, err := s.queries.CreateOrder(ctx, repository.CreateOrderParams{
		CustomerID:     params.CustomerID,
		SubscriptionID: domain.ToNullUUID(params.SubscriptionID),
		ImageCount:     params.ImageCount,
		PriceCents:     price,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create order")
	}

	order := rowToOrder(row)
	metrics.OrdersCreated.WithLabelValues(fundingLabel(order)).Inc()
	s.logger.Info("order created",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"image_count", order.ImageCount,
		"funding", fundingLabel(order),
	)
	return order, nil
}

// GetByID retrieves an order, enforcing customer ownership.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID, actor auth.Actor) (*domain.Order, error) {
	const op = "order.get"

	row, err := s.queries.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "order", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get order")
	}

	order := rowToOrder(row)
	if !actor.IsStaff() && order.CustomerID != actor.ID {
		return nil, domain.NotFound(op, "order", id.String())
	}
	return order, nil
}

// ListForCustomer returns a customer's orders, newest first.
func (s *orderService) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	const op = "order.list"

	rows, err := s.queries.ListOrdersByCustomerID(ctx, customerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, *rowToOrder(row))
	}
	return orders, nil
}

// Transition fires a trigger against an order.
func (s *orderService) Transition(ctx context.Context, orderID uuid.UUID, trigger domain.Trigger, actor auth.Actor) (*domain.Order, error) {
	const op = "order.transition"

	if !domain.ValidTrigger(trigger) {
		return nil, domain.Invalid(op, "unknown transition trigger "+string(trigger))
	}
	if trigger == domain.TriggerConfirmPayment {
		// Receipt confirmation owns this transition so that the receipt and
		// the order advance in one transaction. See the payment service.
		return nil, domain.Invalid(op, "payment confirmation is driven by receipt confirmation")
	}
	if !domain.RoleAllowed(trigger, actor.Role) {
		metrics.OrderTransitions.WithLabelValues(string(trigger), "forbidden").Inc()
		return nil, domain.Forbidden(op, "actor role is not permitted for trigger "+string(trigger))
	}

	for attempt := 0; attempt < transitionRetries; attempt++ {
		row, err := s.queries.GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFound(op, "order", orderID.String())
			}
			return nil, domain.Internal(err, op, "failed to get order")
		}
		order := rowToOrder(row)

		required, _ := domain.TriggerRole(trigger)
		if required == domain.RoleCustomer && order.CustomerID != actor.ID {
			return nil, domain.NotFound(op, "order", orderID.String())
		}

		next, applied, err := domain.ApplyTrigger(op, order.Status, trigger)
		if err != nil {
			metrics.OrderTransitions.WithLabelValues(string(trigger), "invalid").Inc()
			return nil, err
		}
		if !applied {
			// Trigger already applied; idempotent no-op.
			metrics.OrderTransitions.WithLabelValues(string(trigger), "noop").Inc()
			return order, nil
		}

		affected, err := s.queries.TransitionOrderStatus(ctx, repository.TransitionOrderStatusParams{
			ID:         orderID,
			Status:     string(next),
			FromStatus: string(order.Status),
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to transition order")
		}
		if affected == 0 {
			// Lost a race to a concurrent transition; re-evaluate against
			// the fresh status.
			continue
		}

		order.Status = next
		metrics.OrderTransitions.WithLabelValues(string(trigger), "applied").Inc()
		s.logger.Info("order transitioned",
			"order_id", orderID,
			"trigger", trigger,
			"status", next,
			"actor_id", actor.ID,
			"actor_role", actor.Role,
		)
		return order, nil
	}

	return nil, domain.Conflict(op, "order is being modified concurrently")
}

// =============================================================================
// Helper Functions
// =============================================================================

func fundingLabel(o *domain.Order) string {
	if o.SubscriptionFunded() {
		return "subscription"
	}
	return "pay_per_image"
}

// rowToOrder converts a repository order row to a domain Order.
func rowToOrder(row repository.Order) *domain.Order {
	order := &domain.Order{
		ID:             row.ID,
		CustomerID:     row.CustomerID,
		SubscriptionID: domain.NullUUIDValue(row.SubscriptionID),
		Status:         domain.OrderStatus(row.Status),
		ImageCount:     row.ImageCount,
	}
	if row.PriceCents.Valid {
		price := row.PriceCents.Int64
		order.PriceCents = &price
	}
	if row.CreatedAt.Valid {
		order.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		order.UpdatedAt = row.UpdatedAt.Time
	}
	return order
}
