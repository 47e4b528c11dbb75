package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
)

var subscriptionCols = []string{
	"id", "customer_id", "plan_id", "plan_name", "status", "billing_cycle",
	"images_limit", "images_used", "period_start", "period_end",
	"created_at", "updated_at",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockQueries(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *repository.Queries) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock, repository.New(db)
}

func subscriptionRow(id, customerID uuid.UUID, status string, limit, used int32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(subscriptionCols).AddRow(
		id, customerID, "plan_pro", "Pro", status, "monthly",
		limit, used, now.AddDate(0, -1, 0), now.AddDate(0, 0, 14),
		now, now,
	)
}

func TestLedgerService_Reserve(t *testing.T) {
	ctx := context.Background()
	subID := uuid.New()

	t.Run("success", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewLedgerService(queries, testLogger())

		mock.ExpectExec("UPDATE subscriptions").
			WithArgs(subID, int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := svc.Reserve(ctx, subID, 3)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("quota exceeded at the limit", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewLedgerService(queries, testLogger())

		// 58 of 60 used: a reservation of 3 must be refused whole, not
		// partially applied.
		mock.ExpectExec("UPDATE subscriptions").
			WithArgs(subID, int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM subscriptions").
			WithArgs(subID).
			WillReturnRows(subscriptionRow(subID, uuid.New(), "active", 60, 58))

		err := svc.Reserve(ctx, subID, 3)
		require.Error(t, err)
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive subscription", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewLedgerService(queries, testLogger())

		mock.ExpectExec("UPDATE subscriptions").
			WithArgs(subID, int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM subscriptions").
			WithArgs(subID).
			WillReturnRows(subscriptionRow(subID, uuid.New(), "expired", 60, 10))

		err := svc.Reserve(ctx, subID, 1)
		require.Error(t, err)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})

	t.Run("subscription not found", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewLedgerService(queries, testLogger())

		mock.ExpectExec("UPDATE subscriptions").
			WithArgs(subID, int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM subscriptions").
			WithArgs(subID).
			WillReturnError(sql.ErrNoRows)

		err := svc.Reserve(ctx, subID, 1)
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("non-positive count rejected before touching the database", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewLedgerService(queries, testLogger())

		err := svc.Reserve(ctx, subID, 0)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_ListEligible(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	subA := uuid.New()
	subB := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewLedgerService(queries, testLogger())

	now := time.Now().UTC()
	rows := sqlmock.NewRows(subscriptionCols).
		AddRow(subA, customerID, "plan_basic", "Basic", "active", "monthly",
			int32(20), int32(5), now, now.AddDate(0, 0, 7), now, now).
		AddRow(subB, customerID, "plan_pro", "Pro", "active", "yearly",
			int32(100), int32(40), now, now.AddDate(0, 1, 0), now, now)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs(customerID).
		WillReturnRows(rows)

	subs, err := svc.ListEligible(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, subA, subs[0].ID)
	assert.Equal(t, int32(15), subs[0].Remaining())
	assert.Equal(t, subB, subs[1].ID)
	assert.Equal(t, int32(60), subs[1].Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}
