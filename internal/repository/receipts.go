package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const receiptColumns = `id, order_id, customer_id, status, proof_key, proof_meta, reject_reason, submitted_at, resolved_at`

func scanReceipt(row interface{ Scan(...interface{}) error }) (PaymentReceipt, error) {
	var r PaymentReceipt
	err := row.Scan(
		&r.ID,
		&r.OrderID,
		&r.CustomerID,
		&r.Status,
		&r.ProofKey,
		&r.ProofMeta,
		&r.RejectReason,
		&r.SubmittedAt,
		&r.ResolvedAt,
	)
	return r, err
}

const createReceipt = `
INSERT INTO payment_receipts (order_id, customer_id, status, proof_key, proof_meta)
VALUES ($1, $2, 'submitted', $3, $4)
RETURNING ` + receiptColumns + `
`

// CreateReceiptParams holds the arguments for submitting a receipt.
type CreateReceiptParams struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	ProofKey   sql.NullString
	ProofMeta  pqtype.NullRawMessage
}

// CreateReceipt inserts a new receipt in the submitted state.
func (q *Queries) CreateReceipt(ctx context.Context, arg CreateReceiptParams) (PaymentReceipt, error) {
	return scanReceipt(q.db.QueryRowContext(ctx, createReceipt,
		arg.OrderID,
		arg.CustomerID,
		arg.ProofKey,
		arg.ProofMeta,
	))
}

const getReceiptByID = `
SELECT ` + receiptColumns + `
FROM payment_receipts
WHERE id = $1
`

// GetReceiptByID fetches a single receipt.
func (q *Queries) GetReceiptByID(ctx context.Context, id uuid.UUID) (PaymentReceipt, error) {
	return scanReceipt(q.db.QueryRowContext(ctx, getReceiptByID, id))
}

const listReceiptsByOrderID = `
SELECT ` + receiptColumns + `
FROM payment_receipts
WHERE order_id = $1
ORDER BY submitted_at DESC
`

// ListReceiptsByOrderID returns all receipts submitted for an order, newest
// first.
func (q *Queries) ListReceiptsByOrderID(ctx context.Context, orderID uuid.UUID) ([]PaymentReceipt, error) {
	rows, err := q.db.QueryContext(ctx, listReceiptsByOrderID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PaymentReceipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const confirmReceipt = `
UPDATE payment_receipts
SET status = 'confirmed',
    resolved_at = now()
WHERE id = $1
  AND status = 'submitted'
`

// ConfirmReceipt marks a submitted receipt as confirmed. The status guard
// keeps resolved receipts immutable. Run inside the same transaction as the
// order's payment_confirmed transition; a partial unique index on
// payment_receipts(order_id) WHERE status = 'confirmed' backstops the
// one-confirmed-receipt-per-order invariant at the schema level.
//
// Returns 1 on success, 0 when the receipt is missing or already resolved.
func (q *Queries) ConfirmReceipt(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, confirmReceipt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const rejectReceipt = `
UPDATE payment_receipts
SET status = 'rejected',
    reject_reason = $2,
    resolved_at = now()
WHERE id = $1
  AND status = 'submitted'
`

// RejectReceiptParams holds the arguments for rejecting a receipt.
type RejectReceiptParams struct {
	ID     uuid.UUID
	Reason sql.NullString
}

// RejectReceipt marks a submitted receipt as rejected with a reason. The
// order stays in payment_made so the customer can re-submit.
//
// Returns 1 on success, 0 when the receipt is missing or already resolved.
func (q *Queries) RejectReceipt(ctx context.Context, arg RejectReceiptParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, rejectReceipt, arg.ID, arg.Reason)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
