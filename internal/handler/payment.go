package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/service"
	"github.com/go-chi/chi/v5"
)

type PaymentLedger interface {
	Record(ctx context.Context, shipmentID int64, in domain.PaymentInput) (*domain.Payment, error)
	Correct(ctx context.Context, paymentID int64, in domain.PaymentInput) (*domain.Payment, error)
	Get(ctx context.Context, id int64) (*domain.Payment, error)
	ListByShipment(ctx context.Context, shipmentID int64) ([]domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
	Status(ctx context.Context, shipmentID int64) (service.PaymentStatus, error)
	Delete(ctx context.Context, id int64) error
}

type PaymentHandler struct {
	Ledger           PaymentLedger
	DeleteMiddleware func(http.Handler) http.Handler
}

func (h PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.record)
		r.Get("/shipment/{shipmentId}", h.byShipment)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.correct)
		r.With(guard(h.DeleteMiddleware)).Delete("/{id}", h.delete)
	})
}

type recordPaymentRequest struct {
	ShipmentID     *flexDecimal `json:"shipmentId"`
	ShipmentIDFlat *flexDecimal `json:"shipment_id"`
	paymentBody
}

func (h PaymentHandler) record(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id := first(req.ShipmentID, req.ShipmentIDFlat)
	verr := &domain.ValidationError{}
	switch {
	case id != nil && id.outOfRange:
		verr.Add("shipmentId", "is out of range")
	case id == nil || !id.IsPositive():
		verr.Add("shipmentId", "is required")
	case !id.IsInteger():
		verr.Add("shipmentId", "must be a whole number")
	}
	req.paymentBody.check(verr, "payment.")
	if err := verr.OrNil(); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := h.Ledger.Record(r.Context(), id.IntPart(), req.paymentBody.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusCreated, "payment recorded", paymentJSON(*p))
}

func (h PaymentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentJSON(*p))
}

func (h PaymentHandler) correct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body paymentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	verr := &domain.ValidationError{}
	body.check(verr, "payment.")
	if err := verr.OrNil(); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := h.Ledger.Correct(r.Context(), id, body.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "payment updated", paymentJSON(*p))
}

func (h PaymentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "payment deleted", map[string]any{"id": id})
}

func (h PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentsJSON(items))
}

func (h PaymentHandler) byShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipmentId")
	if !ok {
		return
	}
	items, err := h.Ledger.ListByShipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentsJSON(items))
}

func paymentsJSON(items []domain.Payment) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, p := range items {
		out = append(out, paymentJSON(p))
	}
	return out
}
