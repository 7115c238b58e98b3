// Package observability holds the service's prometheus instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersSubmitted counts order submissions by outcome:
	// accepted, capacity_rejected, validation_rejected, failed.
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "falchi",
		Name:      "orders_submitted_total",
		Help:      "Order submissions by outcome.",
	}, []string{"outcome"})

	// SlotUnitsReserved tracks capacity units accepted onto slots.
	SlotUnitsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "falchi",
		Name:      "slot_units_reserved_total",
		Help:      "Capacity units reserved across all slots.",
	})

	// ReconciliationCorrections counts slots whose counter drifted and
	// was overwritten by the reconciliation job.
	ReconciliationCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "falchi",
		Name:      "reconciliation_corrections_total",
		Help:      "Slot counters corrected by reconciliation.",
	})

	// NotificationFailures counts dispatcher errors, by channel.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "falchi",
		Name:      "notification_failures_total",
		Help:      "Notification dispatch failures by channel.",
	}, []string{"channel"})
)
