package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	shipmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Name:      "shipments_created_total",
		Help:      "Shipments committed by the transaction manager.",
	})
	waybillConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Name:      "waybill_conflicts_total",
		Help:      "Shipment create attempts retried after a duplicate waybill number.",
	})
	waybillFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Name:      "waybill_fallbacks_total",
		Help:      "Waybill numbers derived from the clock because allocation failed.",
	})
	paymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Name:      "payments_recorded_total",
		Help:      "Payment rows inserted, by method.",
	}, []string{"method"})
	dashboardFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Name:      "dashboard_fallbacks_total",
		Help:      "Dashboard sub-queries answered with zero values after a storage error.",
	}, []string{"query"})
)
