// Package domain contains core business types and interfaces.
//
// This file defines the Order type and its state machine. Order status is a
// closed transition table rather than an open-ended string: every trigger has
// an explicit set of valid source states, a single destination, and a required
// actor role. Skipping steps is a correctness bug, not a convenience.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActorRole identifies who is performing an operation.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleStaff    ActorRole = "staff"
	RoleAdmin    ActorRole = "admin"
)

// OrderStatus represents the state of a retouching order.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusApproved         OrderStatus = "approved"
	OrderStatusSent             OrderStatus = "sent"
	OrderStatusViewed           OrderStatus = "viewed"
	OrderStatusPaymentMade      OrderStatus = "payment_made"
	OrderStatusPaymentConfirmed OrderStatus = "payment_confirmed"
	OrderStatusPaid             OrderStatus = "paid"
	OrderStatusRejected         OrderStatus = "rejected"
)

// Trigger identifies a state machine transition request.
type Trigger string

const (
	TriggerApprove        Trigger = "approve"         // staff: pending -> approved
	TriggerReject         Trigger = "reject"          // staff: pending|approved -> rejected
	TriggerMarkSent       Trigger = "mark_sent"       // staff: approved -> sent
	TriggerView           Trigger = "view"            // customer: sent -> viewed
	TriggerReportPayment  Trigger = "report_payment"  // customer: viewed -> payment_made
	TriggerConfirmPayment Trigger = "confirm_payment" // staff via reconciler: payment_made -> payment_confirmed
	TriggerMarkPaid       Trigger = "mark_paid"       // staff: payment_confirmed -> paid
)

// transitionRule describes one row of the transition table.
type transitionRule struct {
	from []OrderStatus
	to   OrderStatus
	role ActorRole
}

// transitions is the closed transition table for orders.
var transitions = map[Trigger]transitionRule{
	TriggerApprove:        {from: []OrderStatus{OrderStatusPending}, to: OrderStatusApproved, role: RoleStaff},
	TriggerReject:         {from: []OrderStatus{OrderStatusPending, OrderStatusApproved}, to: OrderStatusRejected, role: RoleStaff},
	TriggerMarkSent:       {from: []OrderStatus{OrderStatusApproved}, to: OrderStatusSent, role: RoleStaff},
	TriggerView:           {from: []OrderStatus{OrderStatusSent}, to: OrderStatusViewed, role: RoleCustomer},
	TriggerReportPayment:  {from: []OrderStatus{OrderStatusViewed}, to: OrderStatusPaymentMade, role: RoleCustomer},
	TriggerConfirmPayment: {from: []OrderStatus{OrderStatusPaymentMade}, to: OrderStatusPaymentConfirmed, role: RoleStaff},
	TriggerMarkPaid:       {from: []OrderStatus{OrderStatusPaymentConfirmed}, to: OrderStatusPaid, role: RoleStaff},
}

// ValidTrigger reports whether t names a known trigger.
func ValidTrigger(t Trigger) bool {
	_, ok := transitions[t]
	return ok
}

// TriggerRole returns the actor role required to fire the trigger. Admin
// actors satisfy staff-role checks.
func TriggerRole(t Trigger) (ActorRole, bool) {
	rule, ok := transitions[t]
	if !ok {
		return "", false
	}
	return rule.role, true
}

// RoleAllowed reports whether an actor with the given role may fire the
// trigger. Admins may fire staff triggers but not customer-only ones.
func RoleAllowed(t Trigger, role ActorRole) bool {
	required, ok := TriggerRole(t)
	if !ok {
		return false
	}
	if required == RoleStaff {
		return role == RoleStaff || role == RoleAdmin
	}
	return role == required
}

// IsTerminalStatus reports whether no further transitions are permitted.
func IsTerminalStatus(s OrderStatus) bool {
	return s == OrderStatusRejected || s == OrderStatusPaid
}

// ApplyTrigger evaluates the transition table for a trigger fired from the
// current status.
//
// Returns the destination status and applied=true when the transition is
// valid. Returns the current status and applied=false when the trigger has
// already been applied (current status equals the trigger's destination);
// re-invoking an applied trigger is a no-op success, not an error. Any other
// combination returns an ETRANSITION error and the order must be left
// unchanged.
func ApplyTrigger(op string, current OrderStatus, t Trigger) (next OrderStatus, applied bool, err error) {
	rule, ok := transitions[t]
	if !ok {
		return current, false, Invalid(op, "unknown transition trigger "+string(t))
	}
	if current == rule.to {
		return current, false, nil
	}
	for _, from := range rule.from {
		if current == from {
			return rule.to, true, nil
		}
	}
	return current, false, InvalidTransition(op, t, current)
}

// Order represents one retouching order from creation to final delivery.
// SubscriptionID is nil for pay-per-image orders, which carry a computed
// price instead of consuming quota. ImageCount must equal the quota reserved
// at creation; it is never adjusted afterwards.
type Order struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	SubscriptionID *uuid.UUID
	Status         OrderStatus
	ImageCount     int32
	PriceCents     *int64 // set only for pay-per-image orders
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubscriptionFunded reports whether the order consumed subscription quota.
func (o *Order) SubscriptionFunded() bool {
	return o.SubscriptionID != nil
}

// Terminal reports whether the order can no longer be mutated.
func (o *Order) Terminal() bool {
	return IsTerminalStatus(o.Status)
}
