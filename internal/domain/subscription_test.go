package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("generate uuid: %v", err)
	}
	return id
}

func TestSubscription_Remaining(t *testing.T) {
	tests := []struct {
		name  string
		limit int32
		used  int32
		want  int32
	}{
		{"untouched", 60, 0, 60},
		{"partially used", 60, 58, 2},
		{"exactly exhausted", 60, 60, 0},
		{"over limit never negative", 60, 75, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscription{ImagesLimit: tt.limit, ImagesUsed: tt.used}
			assert.Equal(t, tt.want, s.Remaining())
		})
	}
}

func TestSubscription_Eligible(t *testing.T) {
	tests := []struct {
		name   string
		status SubscriptionStatus
		limit  int32
		used   int32
		want   bool
	}{
		{"active with quota", SubscriptionStatusActive, 60, 10, true},
		{"active exhausted", SubscriptionStatusActive, 60, 60, false},
		{"expired with quota", SubscriptionStatusExpired, 60, 10, false},
		{"cancelled with quota", SubscriptionStatusCancelled, 60, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscription{Status: tt.status, ImagesLimit: tt.limit, ImagesUsed: tt.used}
			assert.Equal(t, tt.want, s.Eligible())
		})
	}
}
