package handler

import (
	"log/slog"
	"net/http"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/service"
	"github.com/google/uuid"
)

// UploadHandler handles the upload-intent flow: before a customer uploads a
// photo batch, the allocator decides which subscription funds it, or quotes
// a pay-per-image price when none can.
type UploadHandler struct {
	allocator service.AllocatorService
	quoter    service.PriceQuoter
	logger    *slog.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(allocator service.AllocatorService, quoter service.PriceQuoter, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		allocator: allocator,
		quoter:    quoter,
		logger:    logger,
	}
}

// RegisterRoutes registers upload routes with the provided mux.
//
// Routes:
// - POST /upload-intent -> Intent
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("POST /upload-intent", requireActor(http.HandlerFunc(h.Intent)))
}

type uploadIntentRequest struct {
	ImageCount     int32  `json:"image_count"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

type candidateView struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	PlanName       string    `json:"plan_name"`
	Remaining      int32     `json:"remaining"`
}

type uploadIntentResponse struct {
	Outcome        domain.AllocationOutcome `json:"outcome"`
	SubscriptionID *uuid.UUID               `json:"subscription_id,omitempty"`
	Candidates     []candidateView          `json:"candidates,omitempty"`
	// Pay-per-image fallback, populated on no_quota so the client can offer
	// the paid path immediately.
	PriceCents     *int64 `json:"price_cents,omitempty"`
	PriceFormatted string `json:"price_formatted,omitempty"`
}

// Intent handles POST /upload-intent.
func (h *UploadHandler) Intent(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req uploadIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.upload_intent", "Invalid request body"))
		return
	}

	params := service.AllocateParams{
		CustomerID: actor.ID,
		Count:      req.ImageCount,
	}
	if req.SubscriptionID != "" {
		id, err := uuid.Parse(req.SubscriptionID)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.upload_intent", "Invalid subscription ID"))
			return
		}
		params.SubscriptionID = &id
	}

	allocation, err := h.allocator.Allocate(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := uploadIntentResponse{Outcome: allocation.Outcome}
	switch allocation.Outcome {
	case domain.AllocationBound:
		id := allocation.SubscriptionID
		resp.SubscriptionID = &id
	case domain.AllocationRequiresSelection:
		resp.Candidates = make([]candidateView, 0, len(allocation.Candidates))
		for _, c := range allocation.Candidates {
			resp.Candidates = append(resp.Candidates, candidateView{
				SubscriptionID: c.SubscriptionID,
				PlanName:       c.PlanName,
				Remaining:      c.Remaining,
			})
		}
	case domain.AllocationNoQuota:
		price := h.quoter.Quote(req.ImageCount)
		resp.PriceCents = &price
		resp.PriceFormatted = h.quoter.Format(price)
	}

	respondJSON(w, http.StatusOK, resp)
}
