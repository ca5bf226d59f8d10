package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsTotal counts inbound gateway notifications by kind
	// (payment|refund) and outcome (applied|duplicate|contended|
	// out_of_flow|rejected|error).
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_notifications_total",
			Help: "Inbound gateway notifications by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// ReconcileItemsTotal counts per-item reconciliation results by job
	// (orders|refunds) and result (confirmed|closed|settled|abnormal|
	// skipped|error).
	ReconcileItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_items_total",
			Help: "Reconciliation outcomes per item",
		},
		[]string{"job", "result"},
	)

	// ReconcileRunsTotal counts completed reconciliation passes.
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_runs_total",
			Help: "Completed reconciliation passes",
		},
		[]string{"job"},
	)
)
