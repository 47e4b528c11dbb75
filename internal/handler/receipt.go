package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/service"
	"github.com/google/uuid"
)

// ReceiptHandler handles payment receipt HTTP requests: customer submission
// and staff confirmation/rejection, plus the proof thumbnail used in review.
type ReceiptHandler struct {
	payments service.PaymentService
	proofs   service.ProofService
	logger   *slog.Logger
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(payments service.PaymentService, proofs service.ProofService, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		payments: payments,
		proofs:   proofs,
		logger:   logger,
	}
}

// RegisterRoutes registers receipt routes with the provided mux.
//
// Routes:
// - POST /orders/{id}/receipts   -> Submit
// - GET  /orders/{id}/receipts   -> ListForOrder (staff)
// - GET  /receipts/{id}          -> Get
// - POST /receipts/{id}/confirm  -> Confirm (staff)
// - POST /receipts/{id}/reject   -> Reject (staff)
// - GET  /receipts/{id}/proof    -> ProofThumbnail (staff)
func (h *ReceiptHandler) RegisterRoutes(mux *http.ServeMux, requireActor, requireStaff func(http.Handler) http.Handler) {
	mux.Handle("POST /orders/{id}/receipts", requireActor(http.HandlerFunc(h.Submit)))
	mux.Handle("GET /orders/{id}/receipts", requireStaff(http.HandlerFunc(h.ListForOrder)))
	mux.Handle("GET /receipts/{id}", requireActor(http.HandlerFunc(h.Get)))
	mux.Handle("POST /receipts/{id}/confirm", requireStaff(http.HandlerFunc(h.Confirm)))
	mux.Handle("POST /receipts/{id}/reject", requireStaff(http.HandlerFunc(h.Reject)))
	mux.Handle("GET /receipts/{id}/proof", requireStaff(http.HandlerFunc(h.ProofThumbnail)))
}

type submitReceiptRequest struct {
	ProofKey  string          `json:"proof_key,omitempty"`
	ProofMeta json.RawMessage `json:"proof_meta,omitempty"`
}

type rejectReceiptRequest struct {
	Reason string `json:"reason"`
}

type receiptView struct {
	ID           uuid.UUID            `json:"id"`
	OrderID      uuid.UUID            `json:"order_id"`
	CustomerID   uuid.UUID            `json:"customer_id"`
	Status       domain.ReceiptStatus `json:"status"`
	ProofKey     string               `json:"proof_key,omitempty"`
	ProofMeta    json.RawMessage      `json:"proof_meta,omitempty"`
	RejectReason string               `json:"reject_reason,omitempty"`
	SubmittedAt  time.Time            `json:"submitted_at"`
	ResolvedAt   *time.Time           `json:"resolved_at,omitempty"`
}

func receiptToView(rc *domain.PaymentReceipt) receiptView {
	return receiptView{
		ID:           rc.ID,
		OrderID:      rc.OrderID,
		CustomerID:   rc.CustomerID,
		Status:       rc.Status,
		ProofKey:     rc.ProofKey,
		ProofMeta:    rc.ProofMeta,
		RejectReason: rc.RejectReason,
		SubmittedAt:  rc.SubmittedAt,
		ResolvedAt:   rc.ResolvedAt,
	}
}

// Submit handles POST /orders/{id}/receipts. The order must belong to the
// acting customer and sit in payment_made; the service enforces both.
func (h *ReceiptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_submit", "Invalid order ID"))
		return
	}

	var req submitReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_submit", "Invalid request body"))
		return
	}

	receipt, err := h.payments.SubmitReceipt(r.Context(), domain.SubmitReceiptParams{
		OrderID:    orderID,
		CustomerID: actor.ID,
		ProofKey:   req.ProofKey,
		ProofMeta:  req.ProofMeta,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, receiptToView(receipt))
}

// Get handles GET /receipts/{id}. Customers can only see their own receipts.
func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_get", "Invalid receipt ID"))
		return
	}

	receipt, err := h.payments.GetByID(r.Context(), id, actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, receiptToView(receipt))
}

// ListForOrder handles GET /orders/{id}/receipts.
func (h *ReceiptHandler) ListForOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_list", "Invalid order ID"))
		return
	}

	receipts, err := h.payments.ListForOrder(r.Context(), orderID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]receiptView, 0, len(receipts))
	for i := range receipts {
		views = append(views, receiptToView(&receipts[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"receipts": views})
}

// Confirm handles POST /receipts/{id}/confirm. The service performs the
// receipt confirmation and the order advance in one transaction.
func (h *ReceiptHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_confirm", "Invalid receipt ID"))
		return
	}

	receipt, err := h.payments.Confirm(r.Context(), id, actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, receiptToView(receipt))
}

// Reject handles POST /receipts/{id}/reject.
func (h *ReceiptHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_reject", "Invalid receipt ID"))
		return
	}

	var req rejectReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_reject", "Invalid request body"))
		return
	}

	receipt, err := h.payments.Reject(r.Context(), id, actor, req.Reason)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, receiptToView(receipt))
}

// ProofThumbnail handles GET /receipts/{id}/proof, serving a JPEG thumbnail
// of the uploaded proof image for staff review.
func (h *ReceiptHandler) ProofThumbnail(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.receipt_proof", "Invalid receipt ID"))
		return
	}

	thumb, err := h.proofs.ReviewThumbnail(r.Context(), id, actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(thumb)
}
