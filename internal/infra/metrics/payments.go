package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(paymentsTotal) }

var paymentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payments by status (initiated/completed/failed).",
	},
	[]string{"status"},
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}
