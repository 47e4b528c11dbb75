// Package domain contains core business types and interfaces.
//
// This file defines the Subscription type and the quota allocation types.
// These are the domain representations used by business logic; they are
// separate from the repository models to decouple the domain layer from the
// database layer.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the possible states of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// BillingCycle represents how often a subscription renews.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// Subscription represents a customer's plan purchase with its monthly image
// quota. The ledger exclusively owns the usage counter; all mutation of
// ImagesUsed goes through the ledger's Reserve operation or the billing-period
// reset job.
type Subscription struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	PlanID       string
	PlanName     string
	Status       SubscriptionStatus
	BillingCycle BillingCycle
	ImagesLimit  int32
	ImagesUsed   int32
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Remaining returns the unreserved quota for this billing period, never
// negative.
func (s *Subscription) Remaining() int32 {
	if s.ImagesUsed >= s.ImagesLimit {
		return 0
	}
	return s.ImagesLimit - s.ImagesUsed
}

// Eligible reports whether this subscription can fund a new upload: active
// with remaining quota.
func (s *Subscription) Eligible() bool {
	return s.Status == SubscriptionStatusActive && s.ImagesUsed < s.ImagesLimit
}

// AllocationOutcome identifies how an upload request was (or was not) bound
// to a funding subscription.
type AllocationOutcome string

const (
	// AllocationBound means quota was reserved against SubscriptionID.
	AllocationBound AllocationOutcome = "bound"
	// AllocationRequiresSelection means several subscriptions could fund the
	// upload; the customer must pick one and the caller re-invokes allocation
	// with an explicit subscription ID. No quota has been reserved.
	AllocationRequiresSelection AllocationOutcome = "requires_selection"
	// AllocationNoQuota means no eligible subscription covers the requested
	// image count. The caller may offer the pay-per-image path.
	AllocationNoQuota AllocationOutcome = "no_quota"
)

// SubscriptionCandidate annotates an eligible subscription with its remaining
// quota for customer-facing selection.
type SubscriptionCandidate struct {
	SubscriptionID uuid.UUID
	PlanName       string
	Remaining      int32
}

// Allocation is the result of binding an upload request to a funding source.
type Allocation struct {
	Outcome        AllocationOutcome
	SubscriptionID uuid.UUID               // set when Outcome == AllocationBound
	Candidates     []SubscriptionCandidate // set when Outcome == AllocationRequiresSelection
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullUUID converts a uuid pointer to uuid.NullUUID.
func ToNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{Valid: false}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// NullUUIDValue safely extracts a uuid pointer from uuid.NullUUID.
func NullUUIDValue(nu uuid.NullUUID) *uuid.UUID {
	if nu.Valid {
		id := nu.UUID
		return &id
	}
	return nil
}
