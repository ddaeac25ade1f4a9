package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersCreatedTotal,
		orderStatusTotal,
	)
}

var (
	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created, labeled by service type.",
		},
		[]string{"service_type"},
	)

	orderStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Fulfillment status transitions applied, labeled by new status.",
		},
		[]string{"status"},
	)
)

func IncOrderCreated(serviceType string) {
	ordersCreatedTotal.WithLabelValues(norm(serviceType)).Inc()
}

func IncOrderStatus(status string) {
	orderStatusTotal.WithLabelValues(norm(status)).Inc()
}
