package repository

import (
	"context"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
)

type DashboardRepository struct {
	DB db.Querier
}

// latestChargeJoin attaches the active charge row of each shipment s as c.
const latestChargeJoin = `
	LEFT JOIN LATERAL (
		SELECT total FROM charges WHERE shipment_id = s.id ORDER BY id DESC LIMIT 1
	) c ON true`

// Stats aggregates shipment counts, revenue and weight for shipments dated within
// [from, to]. Nil bounds are open.
func (r DashboardRepository) Stats(ctx context.Context, from, to *time.Time) (domain.DashboardStats, error) {
	var s domain.DashboardStats
	err := r.DB.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE s.status = 'Delivered'),
			COUNT(*) FILTER (WHERE s.status = 'Pending'),
			COUNT(*) FILTER (WHERE s.status = 'In Transit'),
			COUNT(*) FILTER (WHERE s.status = 'Cancelled'),
			COALESCE(SUM(c.total), 0),
			COALESCE(ROUND(AVG(c.total), 2), 0),
			COALESCE(SUM(s.weight_kg), 0)
		FROM shipments s`+latestChargeJoin+`
		WHERE ($1::date IS NULL OR s.date >= $1::date)
		  AND ($2::date IS NULL OR s.date <= $2::date)
	`, from, to).Scan(&s.TotalShipments, &s.DeliveredShipments, &s.PendingShipments, &s.InTransitShipments,
		&s.CancelledShipments, &s.TotalRevenue, &s.AverageShipmentValue, &s.TotalWeight)
	return s, err
}

// RevenueSeries returns one point per shipment date over the last days days, newest first.
func (r DashboardRepository) RevenueSeries(ctx context.Context, days int) ([]domain.RevenuePoint, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT s.date, COUNT(*), COALESCE(SUM(c.total), 0), COALESCE(ROUND(AVG(c.total), 2), 0)
		FROM shipments s`+latestChargeJoin+`
		WHERE s.date >= CURRENT_DATE - $1::int
		GROUP BY s.date
		ORDER BY s.date DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.RevenuePoint
	for rows.Next() {
		var p domain.RevenuePoint
		if err := rows.Scan(&p.Date, &p.ShipmentCount, &p.DailyRevenue, &p.AvgShipmentValue); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r DashboardRepository) PaymentMethodBreakdown(ctx context.Context) ([]domain.PaymentMethodStat, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(amount_paid), 0), COALESCE(ROUND(AVG(amount_paid), 2), 0)
		FROM payments
		GROUP BY payment_method
		ORDER BY SUM(amount_paid) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.PaymentMethodStat
	for rows.Next() {
		var it domain.PaymentMethodStat
		var method string
		if err := rows.Scan(&method, &it.Count, &it.TotalAmount, &it.AvgAmount); err != nil {
			return nil, err
		}
		it.Method = domain.PaymentMethod(method)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r DashboardRepository) TopDeliveryLocations(ctx context.Context, limit int) ([]domain.LocationStat, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT s.delivery_location, COUNT(*), COALESCE(SUM(c.total), 0)
		FROM shipments s`+latestChargeJoin+`
		WHERE s.delivery_location IS NOT NULL AND s.delivery_location <> ''
		GROUP BY s.delivery_location
		ORDER BY COUNT(*) DESC, s.delivery_location ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.LocationStat
	for rows.Next() {
		var it domain.LocationStat
		if err := rows.Scan(&it.Location, &it.ShipmentCount, &it.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
