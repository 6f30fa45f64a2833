package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/service"
	"github.com/go-chi/chi/v5"
)

type PartyRegistry interface {
	ResolveOrCreate(ctx context.Context, role domain.PartyRole, in domain.PartyInput) (*domain.Party, bool, error)
	Get(ctx context.Context, role domain.PartyRole, id int64) (*domain.Party, error)
	Update(ctx context.Context, role domain.PartyRole, id int64, in domain.PartyInput) (*domain.Party, error)
	Search(ctx context.Context, role domain.PartyRole, term string) ([]domain.Party, error)
	Delete(ctx context.Context, role domain.PartyRole, id int64) error
}

// PartyShipments pages through the shipments one party took part in.
type PartyShipments interface {
	ForParty(ctx context.Context, role domain.PartyRole, id int64, p domain.Page) (domain.ShipmentPage, error)
}

// PartyHandler serves one role: /senders or /receivers.
type PartyHandler struct {
	Registry         PartyRegistry
	Shipments        PartyShipments
	Role             domain.PartyRole
	DeleteMiddleware func(http.Handler) http.Handler
}

func (h PartyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/"+string(h.Role)+"s", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Get("/{id}/shipments", h.shipments)
		r.With(guard(h.DeleteMiddleware)).Delete("/{id}", h.delete)
	})
}

func (h PartyHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Registry.Search(r.Context(), h.Role, r.URL.Query().Get("search"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, p := range items {
		resp = append(resp, partyJSON(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h PartyHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Registry.Get(r.Context(), h.Role, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partyJSON(*p))
}

func (h PartyHandler) shipments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Registry.Get(r.Context(), h.Role, id); err != nil {
		writeDomainError(w, err)
		return
	}
	page, err := h.Shipments.ForParty(r.Context(), h.Role, id, domain.Page{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "limit", service.DefaultPageSize),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipmentPageJSON(page))
}

func (h PartyHandler) create(w http.ResponseWriter, r *http.Request) {
	var body partyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p, isNew, err := h.Registry.ResolveOrCreate(r.Context(), h.Role, body.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if isNew {
		writeJSONMessage(w, http.StatusCreated, string(h.Role)+" created", partyJSON(*p))
		return
	}
	writeJSONMessage(w, http.StatusOK, string(h.Role)+" already exists", partyJSON(*p))
}

func (h PartyHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body partyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p, err := h.Registry.Update(r.Context(), h.Role, id, body.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, string(h.Role)+" updated", partyJSON(*p))
}

func (h PartyHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Registry.Delete(r.Context(), h.Role, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, string(h.Role)+" deleted", map[string]any{"id": id})
}
