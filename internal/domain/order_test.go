package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTrigger(t *testing.T) {
	tests := []struct {
		name        string
		current     OrderStatus
		trigger     Trigger
		wantNext    OrderStatus
		wantApplied bool
		wantErr     bool
	}{
		// Happy path through the whole lifecycle
		{"approve from pending", OrderStatusPending, TriggerApprove, OrderStatusApproved, true, false},
		{"mark sent from approved", OrderStatusApproved, TriggerMarkSent, OrderStatusSent, true, false},
		{"view from sent", OrderStatusSent, TriggerView, OrderStatusViewed, true, false},
		{"report payment from viewed", OrderStatusViewed, TriggerReportPayment, OrderStatusPaymentMade, true, false},
		{"confirm payment from payment_made", OrderStatusPaymentMade, TriggerConfirmPayment, OrderStatusPaymentConfirmed, true, false},
		{"mark paid from payment_confirmed", OrderStatusPaymentConfirmed, TriggerMarkPaid, OrderStatusPaid, true, false},

		// Rejection from both allowed sources
		{"reject from pending", OrderStatusPending, TriggerReject, OrderStatusRejected, true, false},
		{"reject from approved", OrderStatusApproved, TriggerReject, OrderStatusRejected, true, false},

		// Idempotent re-application: current already at destination
		{"approve when already approved", OrderStatusApproved, TriggerApprove, OrderStatusApproved, false, false},
		{"view when already viewed", OrderStatusViewed, TriggerView, OrderStatusViewed, false, false},
		{"mark paid when already paid", OrderStatusPaid, TriggerMarkPaid, OrderStatusPaid, false, false},
		{"reject when already rejected", OrderStatusRejected, TriggerReject, OrderStatusRejected, false, false},

		// Skipping steps is rejected
		{"mark sent from pending", OrderStatusPending, TriggerMarkSent, OrderStatusPending, false, true},
		{"view from approved", OrderStatusApproved, TriggerView, OrderStatusApproved, false, true},
		{"report payment from sent", OrderStatusSent, TriggerReportPayment, OrderStatusSent, false, true},
		{"mark paid from payment_made", OrderStatusPaymentMade, TriggerMarkPaid, OrderStatusPaymentMade, false, true},
		{"confirm payment from viewed", OrderStatusViewed, TriggerConfirmPayment, OrderStatusViewed, false, true},

		// Terminal states reject everything except their own trigger
		{"approve from rejected", OrderStatusRejected, TriggerApprove, OrderStatusRejected, false, true},
		{"view from rejected", OrderStatusRejected, TriggerView, OrderStatusRejected, false, true},
		{"approve from paid", OrderStatusPaid, TriggerApprove, OrderStatusPaid, false, true},
		{"report payment from paid", OrderStatusPaid, TriggerReportPayment, OrderStatusPaid, false, true},
		{"reject from paid", OrderStatusPaid, TriggerReject, OrderStatusPaid, false, true},

		// Moving backwards is rejected
		{"approve from sent", OrderStatusSent, TriggerApprove, OrderStatusSent, false, true},
		{"view from payment_made", OrderStatusPaymentMade, TriggerView, OrderStatusPaymentMade, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, applied, err := ApplyTrigger("test.transition", tt.current, tt.trigger)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, ETRANSITION, ErrorCode(err))
				// Status must not move on error
				assert.Equal(t, tt.current, next)
				assert.False(t, applied)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantNext, next)
				assert.Equal(t, tt.wantApplied, applied)
			}
		})
	}
}

func TestApplyTrigger_UnknownTrigger(t *testing.T) {
	next, applied, err := ApplyTrigger("test.transition", OrderStatusPending, Trigger("launch"))

	assert.Error(t, err)
	assert.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, OrderStatusPending, next)
	assert.False(t, applied)
}

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		role    ActorRole
		want    bool
	}{
		{"staff approves", TriggerApprove, RoleStaff, true},
		{"admin approves", TriggerApprove, RoleAdmin, true},
		{"customer cannot approve", TriggerApprove, RoleCustomer, false},

		{"customer views", TriggerView, RoleCustomer, true},
		{"staff cannot view", TriggerView, RoleStaff, false},
		{"admin cannot view", TriggerView, RoleAdmin, false},

		{"customer reports payment", TriggerReportPayment, RoleCustomer, true},
		{"staff cannot report payment", TriggerReportPayment, RoleStaff, false},

		{"staff marks paid", TriggerMarkPaid, RoleStaff, true},
		{"admin marks paid", TriggerMarkPaid, RoleAdmin, true},
		{"customer cannot mark paid", TriggerMarkPaid, RoleCustomer, false},

		{"unknown trigger", Trigger("launch"), RoleStaff, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleAllowed(tt.trigger, tt.role))
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(OrderStatusPaid))
	assert.True(t, IsTerminalStatus(OrderStatusRejected))
	assert.False(t, IsTerminalStatus(OrderStatusPending))
	assert.False(t, IsTerminalStatus(OrderStatusPaymentConfirmed))
}

func TestOrder_SubscriptionFunded(t *testing.T) {
	price := int64(2500)
	payPerImage := &Order{PriceCents: &price}
	assert.False(t, payPerImage.SubscriptionFunded())

	id := mustUUID(t)
	funded := &Order{SubscriptionID: &id}
	assert.True(t, funded.SubscriptionFunded())
}
