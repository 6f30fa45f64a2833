package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
	"github.com/shopspring/decimal"
)

const (
	DefaultRevenueDays   = 30
	DefaultLocationLimit = 10
)

// Overview bundles the figures shown on the dashboard landing page.
type Overview struct {
	Stats           domain.DashboardStats
	StatusBreakdown []domain.StatusCount
	Recent          []domain.ShipmentView
}

// DashboardService aggregates reporting figures. A failing sub-query is answered with
// zero values and a logged warning so one broken figure never blanks the dashboard.
type DashboardService struct {
	Reader    ports.DashboardReader
	Shipments ports.ShipmentReader
	Logger    *slog.Logger
}

func (s DashboardService) Stats(ctx context.Context, from, to *time.Time) domain.DashboardStats {
	st, err := s.Reader.Stats(ctx, from, to)
	if err != nil {
		s.fallback(ctx, "stats", err)
		return zeroStats()
	}
	return st
}

func (s DashboardService) StatusBreakdown(ctx context.Context) []domain.StatusCount {
	counts, err := s.Shipments.StatusCounts(ctx)
	if err != nil {
		s.fallback(ctx, "status_breakdown", err)
		counts = nil
	}
	return breakdown(counts)
}

func (s DashboardService) Recent(ctx context.Context, limit int) []domain.ShipmentView {
	items, err := ReadModel{Reader: s.Shipments}.Recent(ctx, limit)
	if err != nil {
		s.fallback(ctx, "recent_shipments", err)
		return []domain.ShipmentView{}
	}
	return items
}

func (s DashboardService) RevenueSeries(ctx context.Context, days int) []domain.RevenuePoint {
	if days < 1 {
		days = DefaultRevenueDays
	}
	if days > 366 {
		days = 366
	}
	items, err := s.Reader.RevenueSeries(ctx, days)
	if err != nil {
		s.fallback(ctx, "revenue", err)
		return []domain.RevenuePoint{}
	}
	if items == nil {
		items = []domain.RevenuePoint{}
	}
	return items
}

func (s DashboardService) PaymentMethods(ctx context.Context) []domain.PaymentMethodStat {
	items, err := s.Reader.PaymentMethodBreakdown(ctx)
	if err != nil {
		s.fallback(ctx, "payment_methods", err)
		return []domain.PaymentMethodStat{}
	}
	if items == nil {
		items = []domain.PaymentMethodStat{}
	}
	return items
}

func (s DashboardService) TopLocations(ctx context.Context, limit int) []domain.LocationStat {
	if limit < 1 {
		limit = DefaultLocationLimit
	}
	items, err := s.Reader.TopDeliveryLocations(ctx, limit)
	if err != nil {
		s.fallback(ctx, "top_locations", err)
		return []domain.LocationStat{}
	}
	if items == nil {
		items = []domain.LocationStat{}
	}
	return items
}

func (s DashboardService) Overview(ctx context.Context, from, to *time.Time) Overview {
	return Overview{
		Stats:           s.Stats(ctx, from, to),
		StatusBreakdown: s.StatusBreakdown(ctx),
		Recent:          s.Recent(ctx, DefaultRecentLimit),
	}
}

func (s DashboardService) fallback(ctx context.Context, query string, err error) {
	dashboardFallbacks.WithLabelValues(query).Inc()
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "dashboard query failed, returning zero values", "query", query, "err", err)
}

func zeroStats() domain.DashboardStats {
	return domain.DashboardStats{
		TotalRevenue:         decimal.Zero,
		AverageShipmentValue: decimal.Zero,
		TotalWeight:          decimal.Zero,
	}
}
