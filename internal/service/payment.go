// Package service contains the business logic layer.
//
// This file implements the payment reconciler: customer-submitted payment
// receipts verified by staff. Confirming a receipt and advancing its order to
// payment_confirmed happen inside one database transaction — a receipt is
// never left confirmed against an order that did not advance, and vice versa.
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
	"github.com/RoyalPrince700/elite-sub002/internal/worker"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PaymentService defines the payment reconciliation operations.
type PaymentService interface {
	// SubmitReceipt records a customer's payment attestation for an order.
	// Allowed only while the order is in payment_made; fails with
	// domain.EPAYMENT otherwise. The proof reference points at an image the
	// storage collaborator already holds.
	SubmitReceipt(ctx context.Context, params domain.SubmitReceiptParams) (*domain.PaymentReceipt, error)

	// GetByID retrieves a receipt. Customers can only see their own.
	GetByID(ctx context.Context, id uuid.UUID, actor auth.Actor) (*domain.PaymentReceipt, error)

	// ListForOrder returns all receipts submitted for an order, newest
	// first. Staff only.
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.PaymentReceipt, error)

	// Confirm marks the receipt confirmed and advances its order from
	// payment_made to payment_confirmed as a single atomic unit. If the
	// order is no longer in payment_made the whole confirmation fails with
	// domain.EPAYMENT and the receipt stays submitted.
	Confirm(ctx context.Context, receiptID uuid.UUID, actor auth.Actor) (*domain.PaymentReceipt, error)

	// Reject marks the receipt rejected with a reason. The order remains in
	// payment_made so the customer may re-submit.
	Reject(ctx context.Context, receiptID uuid.UUID, actor auth.Actor, reason string) (*domain.PaymentReceipt, error)
}

// =============================================================================
// Implementation
// =============================================================================

type paymentService struct {
	db      *sql.DB
	queries *repository.Queries
	logger  *slog.Logger
}

// NewPaymentService creates a new PaymentService. The *sql.DB is needed in
// addition to the queries because confirmation spans two tables in one
// transaction.
func NewPaymentService(db *sql.DB, queries *repository.Queries, logger *slog.Logger) PaymentService {
	return &paymentService{
		db:      db,
		queries: queries,
		logger:  logger,
	}
}

// SubmitReceipt records a payment attestation.
func (s *paymentService) SubmitReceipt(ctx context.Context, params domain.SubmitReceiptParams) (*domain.PaymentReceipt, error) {
	const op = "payment.submit_receipt"

	orderRow, err := s.queries.GetOrderByID(ctx, params.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "order", params.OrderID.String())
		}
		return nil, domain.Internal(err, op, "failed to get order")
	}
	if orderRow.CustomerID != params.CustomerID {
		return nil, domain.NotFound(op, "order", params.OrderID.String())
	}
	if domain.OrderStatus(orderRow.Status) != domain.OrderStatusPaymentMade {
		return nil, domain.NotPaymentReady(op, domain.OrderStatus(orderRow.Status))
	}

	var meta pqtype.NullRawMessage
	if len(params.ProofMeta) > 0 {
		meta = pqtype.NullRawMessage{RawMessage: params.ProofMeta, Valid: true}
	}

	row, err := s.queries.CreateReceipt(ctx, repository.CreateReceiptParams{
		OrderID:    params.OrderID,
		CustomerID: params.CustomerID,
		ProofKey:   domain.ToNullString(params.ProofKey),
		ProofMeta:  meta,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create receipt")
	}

	receipt := rowToReceipt(row)
	s.logger.Info("payment receipt submitted",
		"receipt_id", receipt.ID,
		"order_id", receipt.OrderID,
		"customer_id", receipt.CustomerID,
	)
	return receipt, nil
}

// GetByID retrieves a receipt, enforcing customer ownership.
func (s *paymentService) GetByID(ctx context.Context, id uuid.UUID, actor auth.Actor) (*domain.PaymentReceipt, error) {
	const op = "payment.get_receipt"

	row, err := s.queries.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "receipt", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get receipt")
	}

	receipt := rowToReceipt(row)
	if !actor.IsStaff() && receipt.CustomerID != actor.ID {
		return nil, domain.NotFound(op, "receipt", id.String())
	}
	return receipt, nil
}

// ListForOrder returns all receipts for an order.
func (s *paymentService) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.PaymentReceipt, error) {
	const op = "payment.list_receipts"

	rows, err := s.queries.ListReceiptsByOrderID(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list receipts")
	}

	receipts := make([]domain.PaymentReceipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, *rowToReceipt(row))
	}
	return receipts, nil
}

// Confirm confirms a receipt and advances its order atomically.
func (s *paymentService) Confirm(ctx context.Context, receiptID uuid.UUID, actor auth.Actor) (*domain.PaymentReceipt, error) {
	const op = "payment.confirm"

	if !actor.IsStaff() {
		return nil, domain.Forbidden(op, "only staff can confirm receipts")
	}

	row, err := s.queries.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "receipt", receiptID.String())
		}
		return nil, domain.Internal(err, op, "failed to get receipt")
	}
	if domain.ReceiptStatus(row.Status) != domain.ReceiptStatusSubmitted {
		return nil, domain.Conflict(op, "receipt has already been resolved")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	affected, err := qtx.ConfirmReceipt(ctx, receiptID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to confirm receipt")
	}
	if affected == 0 {
		// Resolved concurrently between the read above and the update.
		return nil, domain.Conflict(op, "receipt has already been resolved")
	}

	affected, err = qtx.TransitionOrderStatus(ctx, repository.TransitionOrderStatusParams{
		ID:         row.OrderID,
		Status:     string(domain.OrderStatusPaymentConfirmed),
		FromStatus: string(domain.OrderStatusPaymentMade),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to advance order")
	}
	if affected == 0 {
		// The order left payment_made (rejected, or another receipt won).
		// Rolling back leaves this receipt submitted, per the invariant that
		// a receipt is confirmed iff its order advanced.
		orderRow, err := s.queries.GetOrderByID(ctx, row.OrderID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to get order")
		}
		metrics.ReceiptsResolved.WithLabelValues("confirm_refused").Inc()
		return nil, domain.NotPaymentReady(op, domain.OrderStatus(orderRow.Status))
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "failed to commit confirmation")
	}

	metrics.ReceiptsResolved.WithLabelValues("confirmed").Inc()
	s.logger.Info("payment receipt confirmed",
		"receipt_id", receiptID,
		"order_id", row.OrderID,
		"staff_id", actor.ID,
	)
	s.enqueueNotification(ctx, row.OrderID, row.CustomerID, "payment_confirmed")

	receipt, err := s.queries.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reload receipt")
	}
	return rowToReceipt(receipt), nil
}

// Reject rejects a receipt, leaving the order in payment_made.
func (s *paymentService) Reject(ctx context.Context, receiptID uuid.UUID, actor auth.Actor, reason string) (*domain.PaymentReceipt, error) {
	const op = "payment.reject"

	if !actor.IsStaff() {
		return nil, domain.Forbidden(op, "only staff can reject receipts")
	}
	if reason == "" {
		return nil, domain.Invalid(op, "a rejection reason is required")
	}

	affected, err := s.queries.RejectReceipt(ctx, repository.RejectReceiptParams{
		ID:     receiptID,
		Reason: domain.ToNullString(reason),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reject receipt")
	}
	if affected == 0 {
		if _, err := s.queries.GetReceiptByID(ctx, receiptID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFound(op, "receipt", receiptID.String())
			}
			return nil, domain.Internal(err, op, "failed to get receipt")
		}
		return nil, domain.Conflict(op, "receipt has already been resolved")
	}

	row, err := s.queries.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reload receipt")
	}

	receipt := rowToReceipt(row)
	metrics.ReceiptsResolved.WithLabelValues("rejected").Inc()
	s.logger.Info("payment receipt rejected",
		"receipt_id", receiptID,
		"order_id", receipt.OrderID,
		"staff_id", actor.ID,
		"reason", reason,
	)
	s.enqueueNotification(ctx, receipt.OrderID, receipt.CustomerID, "receipt_rejected")
	return receipt, nil
}

// enqueueNotification enqueues a status notification job after a resolution
// has committed. Best-effort: a queue failure is logged, never surfaced,
// and never allowed to undo the resolution itself.
func (s *paymentService) enqueueNotification(ctx context.Context, orderID, customerID uuid.UUID, event string) {
	_, err := worker.EnqueueJob(ctx, s.queries, worker.JobTypeNotifyStatus, worker.NotifyStatusPayload{
		OrderID:    orderID,
		CustomerID: customerID,
		Event:      event,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue status notification",
			"order_id", orderID,
			"event", event,
			"error", err,
		)
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// rowToReceipt converts a repository receipt row to a domain PaymentReceipt.
func rowToReceipt(row repository.PaymentReceipt) *domain.PaymentReceipt {
	receipt := &domain.PaymentReceipt{
		ID:           row.ID,
		OrderID:      row.OrderID,
		CustomerID:   row.CustomerID,
		Status:       domain.ReceiptStatus(row.Status),
		ProofKey:     domain.NullStringValue(row.ProofKey),
		RejectReason: domain.NullStringValue(row.RejectReason),
		ResolvedAt:   domain.NullTimeValue(row.ResolvedAt),
	}
	if row.ProofMeta.Valid {
		receipt.ProofMeta = row.ProofMeta.RawMessage
	}
	if row.SubmittedAt.Valid {
		receipt.SubmittedAt = row.SubmittedAt.Time
	}
	return receipt
}
