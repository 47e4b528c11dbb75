// Package service contains the business logic layer.
//
// This file implements the quota allocator: binding an incoming upload
// request to exactly one funding subscription. Allocation is a two-phase
// protocol — a read-only candidate listing when the choice is ambiguous,
// then a reservation once the customer's explicit choice comes back.
package service

import (
	"context"
	"log/slog"

	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AllocateParams contains the parameters for binding an upload to a funding
// source. SubscriptionID is nil for the first phase; the caller sets it when
// re-invoking with the customer's explicit choice.
type AllocateParams struct {
	CustomerID     uuid.UUID
	Count          int32
	SubscriptionID *uuid.UUID
}

// AllocatorService decides which subscription absorbs an upload request.
type AllocatorService interface {
	// Allocate resolves the funding source for an upload of Count images.
	//
	// Without an explicit subscription: exactly one eligible subscription
	// covering Count is reserved against automatically; several candidates
	// yield AllocationRequiresSelection with an annotated list and no side
	// effects; none yield AllocationNoQuota (the caller may then offer the
	// pay-per-image path).
	//
	// With an explicit subscription: the subscription must belong to the
	// customer and the reservation is attempted directly; quota races are
	// resolved by the ledger's linearizable reserve, never allocator-side
	// locking.
	Allocate(ctx context.Context, params AllocateParams) (*domain.Allocation, error)
}

// =============================================================================
// Implementation
// =============================================================================

type allocatorService struct {
	ledger LedgerService
	logger *slog.Logger
}

// NewAllocatorService creates a new AllocatorService on top of the ledger.
func NewAllocatorService(ledger LedgerService, logger *slog.Logger) AllocatorService {
	return &allocatorService{
		ledger: ledger,
		logger: logger,
	}
}

// Allocate binds an upload request to a funding subscription.
func (s *allocatorService) Allocate(ctx context.Context, params AllocateParams) (*domain.Allocation, error) {
	const op = "allocator.allocate"

	if params.Count <= 0 {
		return nil, domain.Invalid(op, "image count must be positive")
	}

	if params.SubscriptionID != nil {
		return s.allocateExplicit(ctx, params)
	}

	eligible, err := s.ledger.ListEligible(ctx, params.CustomerID)
	if err != nil {
		return nil, err
	}

	// Only subscriptions whose remaining quota covers the whole batch are
	// candidates; a batch is never split across funding sources.
	var candidates []domain.Subscription
	for _, sub := range eligible {
		if sub.Remaining() >= params.Count {
			candidates = append(candidates, sub)
		}
	}

	switch len(candidates) {
	case 0:
		return &domain.Allocation{Outcome: domain.AllocationNoQuota}, nil
	case 1:
		if err := s.ledger.Reserve(ctx, candidates[0].ID, params.Count); err != nil {
			return nil, err
		}
		s.logger.Info("upload bound to subscription",
			"customer_id", params.CustomerID,
			"subscription_id", candidates[0].ID,
			"count", params.Count,
		)
		return &domain.Allocation{
			Outcome:        domain.AllocationBound,
			SubscriptionID: candidates[0].ID,
		}, nil
	default:
		annotated := make([]domain.SubscriptionCandidate, 0, len(candidates))
		for _, sub := range candidates {
			annotated = append(annotated, domain.SubscriptionCandidate{
				SubscriptionID: sub.ID,
				PlanName:       sub.PlanName,
				Remaining:      sub.Remaining(),
			})
		}
		return &domain.Allocation{
			Outcome:    domain.AllocationRequiresSelection,
			Candidates: annotated,
		}, nil
	}
}

// allocateExplicit reserves against the customer's chosen subscription.
func (s *allocatorService) allocateExplicit(ctx context.Context, params AllocateParams) (*domain.Allocation, error) {
	const op = "allocator.allocate"

	sub, err := s.ledger.GetByID(ctx, *params.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.CustomerID != params.CustomerID {
		// Do not leak another customer's subscription IDs.
		return nil, domain.NotFound(op, "subscription", params.SubscriptionID.String())
	}

	if err := s.ledger.Reserve(ctx, sub.ID, params.Count); err != nil {
		return nil, err
	}

	s.logger.Info("upload bound to selected subscription",
		"customer_id", params.CustomerID,
		"subscription_id", sub.ID,
		"count", params.Count,
	)
	return &domain.Allocation{
		Outcome:        domain.AllocationBound,
		SubscriptionID: sub.ID,
	}, nil
}
