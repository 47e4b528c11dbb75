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

var receiptCols = []string{
	"id", "order_id", "customer_id", "status", "proof_key", "proof_meta",
	"reject_reason", "submitted_at", "resolved_at",
}

var jobCols = []string{
	"id", "job_type", "payload", "status", "priority", "attempts",
	"max_attempts", "last_error", "scheduled_at", "started_at",
	"completed_at", "created_at",
}

func receiptRow(id, orderID, customerID uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	var resolved any
	if status != "submitted" {
		resolved = now
	}
	return sqlmock.NewRows(receiptCols).AddRow(
		id, orderID, customerID, status, "proofs/receipt.jpg", nil, nil, now, resolved,
	)
}

func jobRow() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(jobCols).AddRow(
		uuid.New(), "notify_status", []byte("{}"), "pending", int32(0), int32(0),
		int32(3), nil, now, nil, nil, now,
	)
}

func TestPaymentService_SubmitReceipt(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	customerID := uuid.New()
	receiptID := uuid.New()

	t.Run("allowed while order is in payment_made", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "payment_made", 3, nil))
		mock.ExpectQuery("INSERT INTO payment_receipts").
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "submitted"))

		receipt, err := svc.SubmitReceipt(ctx, domain.SubmitReceiptParams{
			OrderID:    orderID,
			CustomerID: customerID,
			ProofKey:   "proofs/receipt.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ReceiptStatusSubmitted, receipt.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refused in any other order status", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "viewed", 3, nil))

		_, err := svc.SubmitReceipt(ctx, domain.SubmitReceiptParams{
			OrderID:    orderID,
			CustomerID: customerID,
		})
		require.Error(t, err)
		assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another customer's order reads as not found", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "payment_made", 3, nil))

		_, err := svc.SubmitReceipt(ctx, domain.SubmitReceiptParams{
			OrderID:    orderID,
			CustomerID: uuid.New(),
		})
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

func TestPaymentService_Confirm(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	customerID := uuid.New()
	receiptID := uuid.New()

	t.Run("confirms receipt and advances order in one transaction", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectQuery("SELECT (.+) FROM payment_receipts").
			WithArgs(receiptID).
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "submitted"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_receipts").
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE orders").
			WithArgs(orderID, "payment_confirmed", "payment_made").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("INSERT INTO jobs").
			WillReturnRows(jobRow())
		mock.ExpectQuery("SELECT (.+) FROM payment_receipts").
			WithArgs(receiptID).
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "confirmed"))

		receipt, err := svc.Confirm(ctx, receiptID, staffActor())
		require.NoError(t, err)
		assert.Equal(t, domain.ReceiptStatusConfirmed, receipt.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second receipt cannot confirm after the order advanced", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		// The guarded order update finds the order no longer in payment_made,
		// so the whole confirmation rolls back and the receipt stays
		// submitted.
		mock.ExpectQuery("SELECT (.+) FROM payment_receipts").
			WithArgs(receiptID).
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "submitted"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_receipts").
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE orders").
			WithArgs(orderID, "payment_confirmed", "payment_made").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(orderID).
			WillReturnRows(orderRow(orderID, customerID, "payment_confirmed", 3, nil))
		mock.ExpectRollback()

		_, err := svc.Confirm(ctx, receiptID, staffActor())
		require.Error(t, err)
		assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already resolved receipt conflicts", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectQuery("SELECT (.+) FROM payment_receipts").
			WithArgs(receiptID).
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "confirmed"))

		_, err := svc.Confirm(ctx, receiptID, staffActor())
		require.Error(t, err)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("customers cannot confirm", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		actor := auth.Actor{ID: customerID, Role: domain.RoleCustomer}
		_, err := svc.Confirm(ctx, receiptID, actor)
		require.Error(t, err)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentService_Reject(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	customerID := uuid.New()
	receiptID := uuid.New()

	t.Run("rejects with a reason and leaves the order alone", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectExec("UPDATE payment_receipts").
			WithArgs(receiptID, sql.NullString{String: "unreadable image", Valid: true}).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM payment_receipts").
			WithArgs(receiptID).
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "rejected"))
		mock.ExpectQuery("INSERT INTO jobs").
			WillReturnRows(jobRow())

		receipt, err := svc.Reject(ctx, receiptID, staffActor(), "unreadable image")
		require.NoError(t, err)
		assert.Equal(t, domain.ReceiptStatusRejected, receipt.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reason is required", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		_, err := svc.Reject(ctx, receiptID, staffActor(), "")
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already resolved receipt conflicts", func(t *testing.T) {
		db, mock, queries := newMockQueries(t)
		svc := NewPaymentService(db, queries, testLogger())

		mock.ExpectExec("UPDATE payment_receipts").
			WithArgs(receiptID, sql.NullString{String: "late", Valid: true}).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM payment_receipts").
			WithArgs(receiptID).
			WillReturnRows(receiptRow(receiptID, orderID, customerID, "confirmed"))

		_, err := svc.Reject(ctx, receiptID, staffActor(), "late")
		require.Error(t, err)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})
}
