package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Activation outcomes: delivered, no_match, malformed, missing_token,
	// rejected, duplicate, delivery_failed.
	Activations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_activations_total",
		Help: "Total number of deep-link activations processed, by outcome",
	}, []string{"outcome"})
	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_deliveries_total",
		Help: "Total number of token deliveries attempted, by sink and result",
	}, []string{"sink", "result"})
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_registrations_total",
		Help: "Total number of URI scheme registrations attempted, by platform and result",
	}, []string{"platform", "result"})

	// Listener admission metrics
	ListenerRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_listener_rejected_total",
		Help: "Total number of activations refused by the listener before dispatch",
	}, []string{"reason"})
	ListenerQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "linkctl_listener_queue_depth",
		Help: "Number of activations waiting for the dispatcher",
	})
	ForwardRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_forward_requests_total",
		Help: "Total number of activations forwarded to a running listener, by result",
	}, []string{"result"})

	// Audit sink metrics
	AuditSinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_audit_sink_errors_total",
		Help: "Total number of audit events a sink failed to write",
	}, []string{"sink", "error_type"})
	AuditSinkLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkctl_audit_sink_write_seconds",
		Help:    "Latency of audit sink writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(Activations)
	prometheus.MustRegister(Deliveries)
	prometheus.MustRegister(Registrations)
	prometheus.MustRegister(ListenerRejected)
	prometheus.MustRegister(ListenerQueueDepth)
	prometheus.MustRegister(ForwardRequests)
	prometheus.MustRegister(AuditSinkErrors)
	prometheus.MustRegister(AuditSinkLatency)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
