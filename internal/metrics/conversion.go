package metrics

import "github.com/prometheus/client_golang/prometheus"

// Conversion Prometheus metrics.
var (
	ConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Name:      "conversions_total",
			Help:      "Total number of conversions by outcome",
		},
		[]string{"source", "outcome"}, // outcome: success, partial_success, client_input, not_found, failed, timeout, busy
	)

	ConversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docparse",
			Name:      "conversion_duration_seconds",
			Help:      "Conversion duration in seconds, including admission wait",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source"},
	)

	ConversionErrorRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Name:      "conversion_error_records_total",
			Help:      "Error records reported by the pipeline",
		},
		[]string{"component"},
	)

	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docparse",
			Name:      "engine_requests_total",
			Help:      "Total number of requests to the conversion engine",
		},
		[]string{"op", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docparse",
			Name:      "engine_request_duration_seconds",
			Help:      "Conversion engine request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"op"},
	)

	ConversionSlotsInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docparse",
			Name:      "conversion_slots_in_use",
			Help:      "Conversion slots held by this replica",
		},
	)
)

var convMetricsRegistered bool

// RegisterConversionMetrics registers Prometheus conversion metrics. Must be called once from main.
func RegisterConversionMetrics() {
	if convMetricsRegistered {
		return
	}
	prometheus.MustRegister(ConversionsTotal)
	prometheus.MustRegister(ConversionDuration)
	prometheus.MustRegister(ConversionErrorRecordsTotal)
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(ConversionSlotsInUse)
	convMetricsRegistered = true
}
