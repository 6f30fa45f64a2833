package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/service"
	"github.com/go-chi/chi/v5"
)

// ShipmentWriter performs the atomic shipment operations.
type ShipmentWriter interface {
	CreateShipment(ctx context.Context, in domain.CreateShipmentInput) (*domain.ShipmentView, error)
	UpdateShipment(ctx context.Context, id int64, u domain.ShipmentUpdate) (*domain.ShipmentView, error)
	DeleteShipment(ctx context.Context, id int64) (bool, error)
}

// ShipmentQueries answers read-model queries. Lookups return nil when absent.
type ShipmentQueries interface {
	List(ctx context.Context, f domain.ShipmentFilter, p domain.Page) (domain.ShipmentPage, error)
	Get(ctx context.Context, id int64) (*domain.ShipmentView, error)
	GetByWaybill(ctx context.Context, waybillNo string) (*domain.ShipmentView, error)
}

type ShipmentHandler struct {
	Writer   ShipmentWriter
	Queries  ShipmentQueries
	Payments PaymentLedger
	// DeleteMiddleware guards DELETE when set.
	DeleteMiddleware func(http.Handler) http.Handler
}

func (h ShipmentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/shipments", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/waybill/{waybillNo}", h.getByWaybill)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Get("/{id}/payments", h.payments)
		r.Get("/{id}/payment-status", h.paymentStatus)
		r.With(guard(h.DeleteMiddleware)).Delete("/{id}", h.delete)
	})
}

func (h ShipmentHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ShipmentFilter{Search: strings.TrimSpace(q.Get("search"))}
	if st := strings.TrimSpace(q.Get("status")); st != "" && !strings.EqualFold(st, "all") {
		filter.Status = domain.ShipmentStatus(st)
	}
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeKindError(w, http.StatusBadRequest, domain.KindValidation, "invalid startDate", []fieldError{{Field: "startDate", Message: "must be YYYY-MM-DD"}})
		return
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeKindError(w, http.StatusBadRequest, domain.KindValidation, "invalid endDate", []fieldError{{Field: "endDate", Message: "must be YYYY-MM-DD"}})
		return
	}
	filter.DateFrom, filter.DateTo = from, to

	page, err := h.Queries.List(r.Context(), filter, domain.Page{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "limit", service.DefaultPageSize),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipmentPageJSON(page))
}

func (h ShipmentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.Queries.Get(r.Context(), id)
	h.writeView(w, v, err)
}

func (h ShipmentHandler) getByWaybill(w http.ResponseWriter, r *http.Request) {
	v, err := h.Queries.GetByWaybill(r.Context(), chi.URLParam(r, "waybillNo"))
	h.writeView(w, v, err)
}

func (h ShipmentHandler) writeView(w http.ResponseWriter, v *domain.ShipmentView, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "shipment not found")
		return
	}
	writeJSON(w, http.StatusOK, shipmentJSON(*v))
}

func (h ShipmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var body shipmentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in, err := body.createInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.Writer.CreateShipment(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusCreated, "shipment created", shipmentJSON(*v))
}

func (h ShipmentHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body shipmentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	u, err := body.updateInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.Writer.UpdateShipment(r.Context(), id, u)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "shipment updated", shipmentJSON(*v))
}

func (h ShipmentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	deleted, err := h.Writer.DeleteShipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "shipment not found")
		return
	}
	writeJSONMessage(w, http.StatusOK, "shipment deleted", map[string]any{"id": id})
}

func (h ShipmentHandler) payments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	items, err := h.Payments.ListByShipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentsJSON(items))
}

func (h ShipmentHandler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	st, err := h.Payments.Status(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentStatusJSON(st))
}

// pathID parses a positive numeric URL parameter, answering 400 otherwise.
func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		writeKindError(w, http.StatusBadRequest, domain.KindValidation, "invalid "+key, []fieldError{{Field: key, Message: "must be a positive integer"}})
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func guard(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
