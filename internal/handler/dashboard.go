package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/service"
	"github.com/go-chi/chi/v5"
)

// DashboardReports never fails; broken figures come back zeroed.
type DashboardReports interface {
	Stats(ctx context.Context, from, to *time.Time) domain.DashboardStats
	StatusBreakdown(ctx context.Context) []domain.StatusCount
	Recent(ctx context.Context, limit int) []domain.ShipmentView
	RevenueSeries(ctx context.Context, days int) []domain.RevenuePoint
	PaymentMethods(ctx context.Context) []domain.PaymentMethodStat
	TopLocations(ctx context.Context, limit int) []domain.LocationStat
	Overview(ctx context.Context, from, to *time.Time) service.Overview
}

type DashboardHandler struct {
	Reports DashboardReports
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/statistics", h.statistics)
		r.Get("/status-breakdown", h.statusBreakdown)
		r.Get("/recent-shipments", h.recent)
		r.Get("/revenue", h.revenue)
		r.Get("/payment-methods", h.paymentMethods)
		r.Get("/top-locations", h.topLocations)
		r.Get("/overview", h.overview)
	})
}

func (h DashboardHandler) dateRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeKindError(w, http.StatusBadRequest, domain.KindValidation, "invalid startDate", []fieldError{{Field: "startDate", Message: "must be YYYY-MM-DD"}})
		return nil, nil, false
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeKindError(w, http.StatusBadRequest, domain.KindValidation, "invalid endDate", []fieldError{{Field: "endDate", Message: "must be YYYY-MM-DD"}})
		return nil, nil, false
	}
	return from, to, true
}

func (h DashboardHandler) statistics(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statsJSON(h.Reports.Stats(r.Context(), from, to)))
}

func (h DashboardHandler) statusBreakdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBreakdownJSON(h.Reports.StatusBreakdown(r.Context())))
}

func (h DashboardHandler) recent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", service.DefaultRecentLimit)
	writeJSON(w, http.StatusOK, shipmentsJSON(h.Reports.Recent(r.Context(), limit)))
}

func (h DashboardHandler) revenue(w http.ResponseWriter, r *http.Request) {
	points := h.Reports.RevenueSeries(r.Context(), queryInt(r, "days", service.DefaultRevenueDays))
	resp := make([]map[string]any, 0, len(points))
	for _, p := range points {
		resp = append(resp, map[string]any{
			"date":             p.Date.Format(dateLayout),
			"shipmentCount":    p.ShipmentCount,
			"dailyRevenue":     money(p.DailyRevenue),
			"avgShipmentValue": money(p.AvgShipmentValue),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h DashboardHandler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	items := h.Reports.PaymentMethods(r.Context())
	resp := make([]map[string]any, 0, len(items))
	for _, it := range items {
		resp = append(resp, map[string]any{
			"paymentMethod": it.Method,
			"count":         it.Count,
			"totalAmount":   money(it.TotalAmount),
			"avgAmount":     money(it.AvgAmount),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h DashboardHandler) topLocations(w http.ResponseWriter, r *http.Request) {
	items := h.Reports.TopLocations(r.Context(), queryInt(r, "limit", service.DefaultLocationLimit))
	resp := make([]map[string]any, 0, len(items))
	for _, it := range items {
		resp = append(resp, map[string]any{
			"location":      it.Location,
			"shipmentCount": it.ShipmentCount,
			"totalRevenue":  money(it.TotalRevenue),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h DashboardHandler) overview(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	ov := h.Reports.Overview(r.Context(), from, to)
	writeJSON(w, http.StatusOK, map[string]any{
		"statistics":      statsJSON(ov.Stats),
		"statusBreakdown": statusBreakdownJSON(ov.StatusBreakdown),
		"recentShipments": shipmentsJSON(ov.Recent),
	})
}
