// Package domain contains core business types and interfaces.
//
// This file defines the PaymentReceipt type. Receipts are customer-submitted
// attestations of a bank transfer or similar manual payment; staff confirm or
// reject them through the payment reconciler. At most one receipt per order
// may ever reach the confirmed state.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReceiptStatus represents the possible states of a payment receipt.
type ReceiptStatus string

const (
	ReceiptStatusSubmitted ReceiptStatus = "submitted"
	ReceiptStatusConfirmed ReceiptStatus = "confirmed"
	ReceiptStatusRejected  ReceiptStatus = "rejected"
)

// PaymentReceipt represents one submitted payment attestation for an order.
// ProofKey references the uploaded receipt image in proof storage; storage
// itself is an external collaborator and is never touched inside the
// reconciler's critical section. Confirmed and rejected receipts are
// immutable.
type PaymentReceipt struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	CustomerID   uuid.UUID
	Status       ReceiptStatus
	ProofKey     string          // storage key of the uploaded receipt image, may be empty
	ProofMeta    json.RawMessage // collaborator-supplied metadata (content type, size), may be nil
	RejectReason string          // set when Status == rejected
	SubmittedAt  time.Time
	ResolvedAt   *time.Time // set when confirmed or rejected
}

// Resolved reports whether staff have already confirmed or rejected the
// receipt.
func (r *PaymentReceipt) Resolved() bool {
	return r.Status == ReceiptStatusConfirmed || r.Status == ReceiptStatusRejected
}

// SubmitReceiptParams contains the parameters for submitting a receipt.
type SubmitReceiptParams struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	ProofKey   string
	ProofMeta  json.RawMessage
}
