package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	totalDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_action_dispatches", Help: "requests dispatched to actions by path and outcome"},
		[]string{"path", "outcome"},
	)

	dispatchTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "action_dispatch_seconds",
			Help:    "time spent inside action handlers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	totalProtocolViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_protocol_violations", Help: "emitter calls rejected by operation"},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsToUri,
		totalHttpRequests,
		totalDispatches,
		dispatchTime,
		totalProtocolViolations,
	)
}
