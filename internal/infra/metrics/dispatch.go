package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		dispatchJobsTotal,
		reconcileRunsTotal,
		reconcileOrdersTotal,
	)
}

var (
	dispatchJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_total",
			Help: "Dispatch job outcomes (success/retry/failed/skipped).",
		},
		[]string{"outcome"},
	)

	reconcileRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_runs_total",
			Help: "Reconciliation runs by result (completed/budget_exceeded/skipped).",
		},
		[]string{"result"},
	)

	reconcileOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_orders_total",
			Help: "Per-order reconciliation outcomes (updated/unchanged/error).",
		},
		[]string{"outcome"},
	)
)

func IncDispatch(outcome string) {
	dispatchJobsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncReconcileRun(result string) {
	reconcileRunsTotal.WithLabelValues(norm(result)).Inc()
}

func IncReconcileOrder(outcome string) {
	reconcileOrdersTotal.WithLabelValues(norm(outcome)).Inc()
}
