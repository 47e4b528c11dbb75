package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const subscriptionColumns = `id, customer_id, plan_id, plan_name, status, billing_cycle, images_limit, images_used, period_start, period_end, created_at, updated_at`

func scanSubscription(row interface{ Scan(...interface{}) error }) (Subscription, error) {
	var s Subscription
	err := row.Scan(
		&s.ID,
		&s.CustomerID,
		&s.PlanID,
		&s.PlanName,
		&s.Status,
		&s.BillingCycle,
		&s.ImagesLimit,
		&s.ImagesUsed,
		&s.PeriodStart,
		&s.PeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const getSubscriptionByID = `
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE id = $1
`

// GetSubscriptionByID fetches a single subscription.
func (q *Queries) GetSubscriptionByID(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, getSubscriptionByID, id))
}

const listEligibleSubscriptionsByCustomerID = `
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE customer_id = $1
  AND status = 'active'
  AND images_used < images_limit
ORDER BY period_end ASC
`

// ListEligibleSubscriptionsByCustomerID returns the customer's active
// subscriptions with remaining quota, soonest-expiring first so that quota
// about to lapse is consumed before longer-lived quota.
func (q *Queries) ListEligibleSubscriptionsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Subscription, error) {
	rows, err := q.db.QueryContext(ctx, listEligibleSubscriptionsByCustomerID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const reserveSubscriptionImages = `
UPDATE subscriptions
SET images_used = images_used + $2,
    updated_at = now()
WHERE id = $1
  AND status = 'active'
  AND images_used + $2 <= images_limit
`

// ReserveSubscriptionImagesParams holds the arguments for a quota reservation.
type ReserveSubscriptionImagesParams struct {
	ID    uuid.UUID
	Count int32
}

// ReserveSubscriptionImages atomically increments the usage counter if and
// only if the subscription is active and the increment stays within the
// limit. The guarded single-statement UPDATE makes concurrent reservations
// against one subscription linearizable: the invariant images_used <=
// images_limit cannot be violated by interleaving.
//
// Returns the number of rows updated: 1 on success, 0 when the subscription
// is missing, inactive, or the reservation would exceed the limit. The
// caller distinguishes those cases with a follow-up read.
func (q *Queries) ReserveSubscriptionImages(ctx context.Context, arg ReserveSubscriptionImagesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, reserveSubscriptionImages, arg.ID, arg.Count)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const resetLapsedSubscriptionPeriods = `
UPDATE subscriptions
SET images_used = 0,
    period_start = period_end,
    period_end = period_end + CASE billing_cycle WHEN 'yearly' THEN interval '1 year' ELSE interval '1 month' END,
    updated_at = now()
WHERE status = 'active'
  AND period_end <= $1
`

// ResetLapsedSubscriptionPeriods rolls every active subscription whose
// billing period has ended into its next period with a zeroed usage counter.
// Returns the number of subscriptions reset.
func (q *Queries) ResetLapsedSubscriptionPeriods(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, resetLapsedSubscriptionPeriods, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createSubscription = `
INSERT INTO subscriptions (customer_id, plan_id, plan_name, status, billing_cycle, images_limit, period_start, period_end)
VALUES ($1, $2, $3, 'active', $4, $5, $6, $7)
RETURNING ` + subscriptionColumns + `
`

// CreateSubscriptionParams holds the arguments for creating a subscription.
type CreateSubscriptionParams struct {
	CustomerID   uuid.UUID
	PlanID       string
	PlanName     string
	BillingCycle string
	ImagesLimit  int32
	PeriodStart  time.Time
	PeriodEnd    time.Time
}

// CreateSubscription inserts a new active subscription with zero usage.
// Plan purchase itself happens in the billing collaborator; this records the
// resulting quota grant.
func (q *Queries) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (Subscription, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, createSubscription,
		arg.CustomerID,
		arg.PlanID,
		arg.PlanName,
		arg.BillingCycle,
		arg.ImagesLimit,
		arg.PeriodStart,
		arg.PeriodEnd,
	))
}
