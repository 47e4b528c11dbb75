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

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	orders service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// RegisterRoutes registers order routes with the provided mux.
//
// Routes:
// - POST /orders                  -> Create
// - GET  /orders                  -> List
// - GET  /orders/{id}             -> Get
// - POST /orders/{id}/transition  -> Transition
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("POST /orders", requireActor(http.HandlerFunc(h.Create)))
	mux.Handle("GET /orders", requireActor(http.HandlerFunc(h.List)))
	mux.Handle("GET /orders/{id}", requireActor(http.HandlerFunc(h.Get)))
	mux.Handle("POST /orders/{id}/transition", requireActor(http.HandlerFunc(h.Transition)))
}

type createOrderRequest struct {
	ImageCount     int32  `json:"image_count"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

type transitionRequest struct {
	Trigger string `json:"trigger"`
}

type orderView struct {
	ID             uuid.UUID          `json:"id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	SubscriptionID *uuid.UUID         `json:"subscription_id,omitempty"`
	Status         domain.OrderStatus `json:"status"`
	ImageCount     int32              `json:"image_count"`
	PriceCents     *int64             `json:"price_cents,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func orderToView(o *domain.Order) orderView {
	return orderView{
		ID:             o.ID,
		CustomerID:     o.CustomerID,
		SubscriptionID: o.SubscriptionID,
		Status:         o.Status,
		ImageCount:     o.ImageCount,
		PriceCents:     o.PriceCents,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// Create handles POST /orders. The order is created for the acting customer;
// a subscription_id must come from a prior successful allocation.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_create", "Invalid request body"))
		return
	}

	params := service.CreateOrderParams{
		CustomerID: actor.ID,
		ImageCount: req.ImageCount,
	}
	if req.SubscriptionID != "" {
		id, err := uuid.Parse(req.SubscriptionID)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_create", "Invalid subscription ID"))
			return
		}
		params.SubscriptionID = &id
	}

	order, err := h.orders.Create(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderToView(order))
}

// Get handles GET /orders/{id}. Customers can only see their own orders;
// the service enforces ownership.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_get", "Invalid order ID"))
		return
	}

	order, err := h.orders.GetByID(r.Context(), id, actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, orderToView(order))
}

// List handles GET /orders. Customers see their own orders; staff may pass
// ?customer_id= to list another customer's.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	customerID := actor.ID
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_list", "Invalid customer ID"))
			return
		}
		if id != actor.ID && !actor.IsStaff() {
			ForbiddenResponse(w, r, h.logger)
			return
		}
		customerID = id
	}

	orders, err := h.orders.ListForCustomer(r.Context(), customerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, orderToView(&orders[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": views})
}

// Transition handles POST /orders/{id}/transition. Role and ownership checks
// live in the service; re-firing an already-applied trigger returns the
// order unchanged with 200.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_transition", "Invalid order ID"))
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_transition", "Invalid request body"))
		return
	}

	order, err := h.orders.Transition(r.Context(), id, domain.Trigger(req.Trigger), actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, orderToView(order))
}
