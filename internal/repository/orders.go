package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const orderColumns = `id, customer_id, subscription_id, status, image_count, price_cents, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.SubscriptionID,
		&o.Status,
		&o.ImageCount,
		&o.PriceCents,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

const createOrder = `
INSERT INTO orders (customer_id, subscription_id, status, image_count, price_cents)
VALUES ($1, $2, 'pending', $3, $4)
RETURNING ` + orderColumns + `
`

// CreateOrderParams holds the arguments for creating an order.
type CreateOrderParams struct {
	CustomerID     uuid.UUID
	SubscriptionID uuid.NullUUID
	ImageCount     int32
	PriceCents     sql.NullInt64
}

// CreateOrder inserts a new order in the pending state.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRowContext(ctx, createOrder,
		arg.CustomerID,
		arg.SubscriptionID,
		arg.ImageCount,
		arg.PriceCents,
	))
}

const getOrderByID = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

// GetOrderByID fetches a single order.
func (q *Queries) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRowContext(ctx, getOrderByID, id))
}

const listOrdersByCustomerID = `
SELECT ` + orderColumns + `
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
`

// ListOrdersByCustomerID returns a customer's orders, newest first.
func (q *Queries) ListOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	rows, err := q.db.QueryContext(ctx, listOrdersByCustomerID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const transitionOrderStatus = `
UPDATE orders
SET status = $2,
    updated_at = now()
WHERE id = $1
  AND status = $3
`

// TransitionOrderStatusParams holds the arguments for a guarded status update.
type TransitionOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// TransitionOrderStatus moves an order to a new status if and only if it is
// still in the expected source status. The guard serializes concurrent
// transitions per order: an interleaving writer loses the race and gets zero
// rows, leaving the state machine consistent.
//
// Returns the number of rows updated: 1 on success, 0 when the order is
// missing or no longer in FromStatus.
func (q *Queries) TransitionOrderStatus(ctx context.Context, arg TransitionOrderStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
