package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ChargeLedger interface {
	UpsertForShipment(ctx context.Context, shipmentID int64, in domain.ChargeInput) (*domain.Charge, error)
	GetForShipment(ctx context.Context, shipmentID int64) (*domain.Charge, error)
	Get(ctx context.Context, id int64) (*domain.Charge, error)
	List(ctx context.Context) ([]domain.Charge, error)
	Delete(ctx context.Context, id int64) error
}

type ChargeHandler struct {
	Ledger           ChargeLedger
	DeleteMiddleware func(http.Handler) http.Handler
}

func (h ChargeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/charges", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/shipment/{shipmentId}", h.byShipment)
		r.Put("/shipment/{shipmentId}", h.upsert)
		r.Get("/{id}", h.get)
		r.With(guard(h.DeleteMiddleware)).Delete("/{id}", h.delete)
	})
}

func (h ChargeHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, chargeJSON(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ChargeHandler) byShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipmentId")
	if !ok {
		return
	}
	c, err := h.Ledger.GetForShipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "charges not found for shipment")
		return
	}
	writeJSON(w, http.StatusOK, chargeJSON(*c))
}

func (h ChargeHandler) upsert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipmentId")
	if !ok {
		return
	}
	var body chargeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	verr := &domain.ValidationError{}
	body.check(verr, "charges.")
	if err := verr.OrNil(); err != nil {
		writeDomainError(w, err)
		return
	}
	c, err := h.Ledger.UpsertForShipment(r.Context(), id, body.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "charges saved", chargeJSON(*c))
}

func (h ChargeHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chargeJSON(*c))
}

func (h ChargeHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "charges deleted", map[string]any{"id": id})
}
