// Package service contains the business logic layer.
//
// This file implements proof image review: fetching a receipt's uploaded
// proof from the storage collaborator and producing a thumbnail for the
// staff review surface. Storage is called outside any reconciler critical
// section; a storage failure surfaces as domain.EUNAVAILABLE and never
// touches receipt or order state.
package service

import (
	"context"
	"log/slog"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/storage"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ProofService serves receipt proof images for staff review.
type ProofService interface {
	// ReviewThumbnail returns a JPEG thumbnail of the receipt's proof image.
	// Staff only. Returns domain.EINVALID when the receipt carries no proof
	// reference and domain.EUNAVAILABLE when the storage collaborator fails.
	ReviewThumbnail(ctx context.Context, receiptID uuid.UUID, actor auth.Actor) ([]byte, error)
}

// =============================================================================
// Implementation
// =============================================================================

type proofService struct {
	payments PaymentService
	store    storage.Storage
	thumbs   ThumbnailProcessor
	logger   *slog.Logger
}

// NewProofService creates a new ProofService.
func NewProofService(payments PaymentService, store storage.Storage, thumbs ThumbnailProcessor, logger *slog.Logger) ProofService {
	return &proofService{
		payments: payments,
		store:    store,
		thumbs:   thumbs,
		logger:   logger,
	}
}

// ReviewThumbnail fetches and thumbnails a receipt's proof image.
func (s *proofService) ReviewThumbnail(ctx context.Context, receiptID uuid.UUID, actor auth.Actor) ([]byte, error) {
	const op = "proof.review_thumbnail"

	if !actor.IsStaff() {
		return nil, domain.Forbidden(op, "only staff can review proof images")
	}

	receipt, err := s.payments.GetByID(ctx, receiptID, actor)
	if err != nil {
		return nil, err
	}
	if receipt.ProofKey == "" {
		return nil, domain.Invalid(op, "receipt carries no proof image")
	}

	body, _, err := s.store.Get(ctx, receipt.ProofKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.NotFound(op, "proof image", receipt.ProofKey)
		}
		return nil, domain.Unavailable(err, op, "proof storage is unavailable")
	}
	defer body.Close()

	thumb, _, _, err := s.thumbs.GenerateThumbnail(body, ReviewThumbWidth, ReviewThumbHeight)
	if err != nil {
		return nil, domain.Invalid(op, "proof image could not be decoded")
	}
	return thumb, nil
}
