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

// DeliverableHandler handles deliverable registry HTTP requests.
type DeliverableHandler struct {
	deliverables service.DeliverableService
	logger       *slog.Logger
}

// NewDeliverableHandler creates a new DeliverableHandler.
func NewDeliverableHandler(deliverables service.DeliverableService, logger *slog.Logger) *DeliverableHandler {
	return &DeliverableHandler{
		deliverables: deliverables,
		logger:       logger,
	}
}

// RegisterRoutes registers deliverable routes with the provided mux.
//
// Routes:
// - POST   /deliverables      -> Create (staff)
// - DELETE /deliverables/{id} -> Delete (staff)
// - GET    /deliverables      -> List
func (h *DeliverableHandler) RegisterRoutes(mux *http.ServeMux, requireActor, requireStaff func(http.Handler) http.Handler) {
	mux.Handle("POST /deliverables", requireStaff(http.HandlerFunc(h.Create)))
	mux.Handle("DELETE /deliverables/{id}", requireStaff(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /deliverables", requireActor(http.HandlerFunc(h.List)))
}

type createDeliverableRequest struct {
	CustomerID  string `json:"customer_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
}

type deliverableView struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	CreatedBy   uuid.UUID `json:"created_by"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func deliverableToView(d *domain.Deliverable) deliverableView {
	return deliverableView{
		ID:          d.ID,
		CustomerID:  d.CustomerID,
		CreatedBy:   d.CreatedBy,
		Title:       d.Title,
		Link:        d.Link,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

// Create handles POST /deliverables. Field-level validation happens in the
// service and surfaces as a structured 400.
func (h *DeliverableHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createDeliverableRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.deliverable_create", "Invalid request body"))
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.deliverable_create", "Invalid customer ID"))
		return
	}

	deliverable, err := h.deliverables.Add(r.Context(), domain.AddDeliverableParams{
		CustomerID:  customerID,
		StaffID:     actor.ID,
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, deliverableToView(deliverable))
}

// Delete handles DELETE /deliverables/{id}. Removal is a hard delete.
func (h *DeliverableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.deliverable_delete", "Invalid deliverable ID"))
		return
	}

	if err := h.deliverables.Remove(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /deliverables. Customers see their own artifacts; staff
// may pass ?customer_id= to list another customer's.
func (h *DeliverableHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	customerID := actor.ID
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.deliverable_list", "Invalid customer ID"))
			return
		}
		if id != actor.ID && !actor.IsStaff() {
			ForbiddenResponse(w, r, h.logger)
			return
		}
		customerID = id
	}

	deliverables, err := h.deliverables.ListFor(r.Context(), customerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]deliverableView, 0, len(deliverables))
	for i := range deliverables {
		views = append(views, deliverableToView(&deliverables[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"deliverables": views})
}
