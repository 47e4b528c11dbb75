package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/service"
	"github.com/google/uuid"
)

// SubscriptionHandler exposes the subscription ledger read side.
type SubscriptionHandler struct {
	ledger service.LedgerService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(ledger service.LedgerService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterRoutes registers subscription routes with the provided mux.
//
// Routes:
// - GET /subscriptions -> ListEligible
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("GET /subscriptions", requireActor(http.HandlerFunc(h.ListEligible)))
}

type subscriptionView struct {
	ID           uuid.UUID                 `json:"id"`
	PlanID       string                    `json:"plan_id"`
	PlanName     string                    `json:"plan_name"`
	Status       domain.SubscriptionStatus `json:"status"`
	BillingCycle domain.BillingCycle       `json:"billing_cycle"`
	ImagesLimit  int32                     `json:"images_limit"`
	ImagesUsed   int32                     `json:"images_used"`
	Remaining    int32                     `json:"remaining"`
	PeriodStart  time.Time                 `json:"period_start"`
	PeriodEnd    time.Time                 `json:"period_end"`
}

// ListEligible handles GET /subscriptions, returning the acting customer's
// subscriptions that can still fund uploads this period. Staff may pass
// ?customer_id= to inspect another customer's ledger.
func (h *SubscriptionHandler) ListEligible(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	customerID := actor.ID
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.subscription_list", "Invalid customer ID"))
			return
		}
		if id != actor.ID && !actor.IsStaff() {
			ForbiddenResponse(w, r, h.logger)
			return
		}
		customerID = id
	}

	subs, err := h.ledger.ListEligible(r.Context(), customerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]subscriptionView, 0, len(subs))
	for i := range subs {
		s := &subs[i]
		views = append(views, subscriptionView{
			ID:           s.ID,
			PlanID:       s.PlanID,
			PlanName:     s.PlanName,
			Status:       s.Status,
			BillingCycle: s.BillingCycle,
			ImagesLimit:  s.ImagesLimit,
			ImagesUsed:   s.ImagesUsed,
			Remaining:    s.Remaining(),
			PeriodStart:  s.PeriodStart,
			PeriodEnd:    s.PeriodEnd,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": views})
}
