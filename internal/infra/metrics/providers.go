package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(providerCallLatencyMs) }

var providerCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "provider_call_latency_ms",
		Help:    "Upstream SMM panel call latency in milliseconds.",
		Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
	},
	[]string{"provider", "action", "success"},
)

func ObserveProviderCall(provider, action string, ms int, success bool) {
	providerCallLatencyMs.WithLabelValues(norm(provider), norm(action), strconv.FormatBool(success)).Observe(float64(ms))
}
