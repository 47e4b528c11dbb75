package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/domain"
)

var orderCols = []string{
	"id", "customer_id", "subscription_id", "status", "image_count",
	"price_cents", "created_at", "updated_at",
}

func orderRow(id, customerID uuid.UUID, status string, imageCount int32, priceCents any) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(orderCols).AddRow(
		id, customerID, nil, status, imageCount, priceCents, now, now,
	)
}

func staffActor() auth.Actor {
	return auth.Actor{ID: uuid.New(), Role: domain.RoleStaff}
}

func TestOrderService_Create_PayPerImagePrice(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	orderID := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(customerID, uuid.NullUUID{}, int32(3), sql.NullInt64{Int64: 1500, Valid: true}).
		WillReturnRows(orderRow(orderID, customerID, "pending", 3, int64(1500)))

	order, err := svc.Create(ctx, CreateOrderParams{CustomerID: customerID, ImageCount: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.NotNil(t, order.PriceCents)
	assert.Equal(t, int64(1500), *order.PriceCents)
	assert.False(t, order.SubscriptionFunded())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Create_SubscriptionFundedHasNoPrice(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	orderID := uuid.New()
	subID := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs(subID).
		WillReturnRows(subscriptionRow(subID, customerID, "active", 60, 10))

	now := time.Now().UTC()
	rows := sqlmock.NewRows(orderCols).AddRow(
		orderID, customerID, subID, "pending", int32(3), nil, now, now,
	)
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(customerID, uuid.NullUUID{UUID: subID, Valid: true}, int32(3), sql.NullInt64{}).
		WillReturnRows(rows)

	order, err := svc.Create(ctx, CreateOrderParams{
		CustomerID:     customerID,
		SubscriptionID: &subID,
		ImageCount:     3,
	})
	require.NoError(t, err)
	assert.Nil(t, order.PriceCents)
	assert.True(t, order.SubscriptionFunded())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Create_RejectsForeignSubscription(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	otherCustomerID := uuid.New()
	subID := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

	// The subscription belongs to someone else: no order row may be
	// inserted, and the answer must not reveal that the ID exists.
	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs(subID).
		WillReturnRows(subscriptionRow(subID, otherCustomerID, "active", 60, 10))

	_, err := svc.Create(ctx, CreateOrderParams{
		CustomerID:     customerID,
		SubscriptionID: &subID,
		ImageCount:     3,
	})
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Create_RejectsUnknownSubscription(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	subID := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs(subID).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Create(ctx, CreateOrderParams{
		CustomerID:     customerID,
		SubscriptionID: &subID,
		ImageCount:     3,
	})
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Create_RejectsInactiveSubscription(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	subID := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs(subID).
		WillReturnRows(subscriptionRow(subID, customerID, "cancelled", 60, 10))

	_, err := svc.Create(ctx, CreateOrderParams{
		CustomerID:     customerID,
		SubscriptionID: &subID,
		ImageCount:     3,
	})
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Create_InvalidImageCount(t *testing.T) {
	_, _, queries := newMockQueries(t)
	svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

	_, err := svc.Create(context.Background(), CreateOrderParams{CustomerID: uuid.New(), ImageCount: 0})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestOrderService_Transition(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	customerID := uuid.New()

	t.Run("staff approves pending order", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "pending", 3, nil))
		mock.ExpectExec("UPDATE orders").
			WithArgs(orderID, "approved", "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		order, err := svc.Transition(ctx, orderID, domain.TriggerApprove, staffActor())
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusApproved, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-firing an applied trigger is a no-op success", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		// Already approved: no UPDATE is issued.
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "approved", 3, nil))

		order, err := svc.Transition(ctx, orderID, domain.TriggerApprove, staffActor())
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusApproved, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skipping a step fails and leaves the order unchanged", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "pending", 3, nil))

		_, err := svc.Transition(ctx, orderID, domain.TriggerMarkSent, staffActor())
		require.Error(t, err)
		assert.Equal(t, domain.ETRANSITION, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("customer cannot fire staff triggers", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		actor := auth.Actor{ID: customerID, Role: domain.RoleCustomer}
		_, err := svc.Transition(ctx, orderID, domain.TriggerApprove, actor)
		require.Error(t, err)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("customer triggers require ownership", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "sent", 3, nil))

		otherCustomer := auth.Actor{ID: uuid.New(), Role: domain.RoleCustomer}
		_, err := svc.Transition(ctx, orderID, domain.TriggerView, otherCustomer)
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("confirm_payment is reserved for the reconciler", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		_, err := svc.Transition(ctx, orderID, domain.TriggerConfirmPayment, staffActor())
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race retries against the fresh status", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		// First attempt loses the guarded update; the reload shows the order
		// already approved, which resolves as an idempotent no-op.
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "pending", 3, nil))
		mock.ExpectExec("UPDATE orders").
			WithArgs(orderID, "approved", "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "approved", 3, nil))

		order, err := svc.Transition(ctx, orderID, domain.TriggerApprove, staffActor())
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusApproved, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order not found", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.Transition(ctx, orderID, domain.TriggerApprove, staffActor())
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

func TestOrderService_GetByID_Ownership(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	customerID := uuid.New()

	t.Run("owner sees the order", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "pending", 3, nil))

		order, err := svc.GetByID(ctx, orderID, auth.Actor{ID: customerID, Role: domain.RoleCustomer})
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
	})

	t.Run("another customer gets not found", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "pending", 3, nil))

		_, err := svc.GetByID(ctx, orderID, auth.Actor{ID: uuid.New(), Role: domain.RoleCustomer})
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("staff sees any order", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewOrderService(queries, NewPriceQuoter(500, "USD"), testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "pending", 3, nil))

		order, err := svc.GetByID(ctx, orderID, staffActor())
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
	})
}
