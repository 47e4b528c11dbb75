// Package service contains the business logic layer.
//
// This file implements the subscription ledger: the single owner of the
// per-subscription usage counters. Nothing else in the system increments
// images_used.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/metrics"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// LedgerService defines operations on subscription quota counters.
type LedgerService interface {
	// ListEligible returns the customer's active subscriptions with remaining
	// quota, ordered soonest-expiring first. Read-only; safe to call
	// repeatedly. Empty slice if none are eligible.
	ListEligible(ctx context.Context, customerID uuid.UUID) ([]domain.Subscription, error)

	// GetByID retrieves a subscription.
	// Returns domain.ENOTFOUND if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// Reserve atomically charges count images against the subscription.
	// Returns domain.EQUOTA when the reservation would exceed the limit,
	// domain.ECONFLICT when the subscription is not active, and
	// domain.ENOTFOUND when it does not exist. On any failure no state is
	// mutated. Concurrent reservations against one subscription are
	// linearized by a guarded single-statement update, never by caller-side
	// locking.
	Reserve(ctx context.Context, subscriptionID uuid.UUID, count int32) error
}

// =============================================================================
// Implementation
// =============================================================================

type ledgerService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(queries *repository.Queries, logger *slog.Logger) LedgerService {
	return &ledgerService{
		queries: queries,
		logger:  logger,
	}
}

// ListEligible returns eligible subscriptions ordered by ascending period end.
func (s *ledgerService) ListEligible(ctx context.Context, customerID uuid.UUID) ([]domain.Subscription, error) {
	const op = "ledger.list_eligible"

	rows, err := s.queries.ListEligibleSubscriptionsByCustomerID(ctx, customerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list eligible subscriptions")
	}

	subs := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, *rowToSubscription(row))
	}
	return subs, nil
}

// GetByID retrieves a subscription by ID.
func (s *ledgerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	const op = "ledger.get"

	row, err := s.queries.GetSubscriptionByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "subscription", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get subscription")
	}
	return rowToSubscription(row), nil
}

// Reserve charges quota with a single guarded update.
func (s *ledgerService) Reserve(ctx context.Context, subscriptionID uuid.UUID, count int32) error {
	const op = "ledger.reserve"

	if count <= 0 {
		return domain.Invalid(op, "image count must be positive")
	}

	affected, err := s.queries.ReserveSubscriptionImages(ctx, repository.ReserveSubscriptionImagesParams{
		ID:    subscriptionID,
		Count: count,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to reserve quota")
	}

	if affected == 0 {
		// The guard refused; read the row to report why.
		row, err := s.queries.GetSubscriptionByID(ctx, subscriptionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				metrics.QuotaReservations.WithLabelValues("not_found").Inc()
				return domain.NotFound(op, "subscription", subscriptionID.String())
			}
			return domain.Internal(err, op, "failed to get subscription")
		}
		if row.Status != string(domain.SubscriptionStatusActive) {
			metrics.QuotaReservations.WithLabelValues("inactive").Inc()
			return domain.Conflict(op, "subscription is not active")
		}
		metrics.QuotaReservations.WithLabelValues("quota_exceeded").Inc()
		s.logger.Info("quota reservation refused",
			"subscription_id", subscriptionID,
			"requested", count,
			"used", row.ImagesUsed,
			"limit", row.ImagesLimit,
		)
		return domain.QuotaExceeded(op, count, row.ImagesUsed, row.ImagesLimit)
	}

	metrics.QuotaReservations.WithLabelValues("reserved").Inc()
	s.logger.Info("quota reserved",
		"subscription_id", subscriptionID,
		"count", count,
	)
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// rowToSubscription converts a repository subscription row to a domain
// Subscription.
func rowToSubscription(row repository.Subscription) *domain.Subscription {
	sub := &domain.Subscription{
		ID:           row.ID,
		CustomerID:   row.CustomerID,
		PlanID:       row.PlanID,
		PlanName:     row.PlanName,
		Status:       domain.SubscriptionStatus(row.Status),
		BillingCycle: domain.BillingCycle(row.BillingCycle),
		ImagesLimit:  row.ImagesLimit,
		ImagesUsed:   row.ImagesUsed,
		PeriodStart:  row.PeriodStart,
		PeriodEnd:    row.PeriodEnd,
	}
	if row.CreatedAt.Valid {
		sub.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		sub.UpdatedAt = row.UpdatedAt.Time
	}
	return sub
}
