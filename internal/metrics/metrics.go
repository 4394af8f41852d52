package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tablesync"

// Recorder owns the server's Prometheus collectors.
//
// Metrics collected:
//   - tablesync_events_total: inbound events that were applied, by event
//   - tablesync_dropped_events_total: inbound events rejected, by event and reason
//   - tablesync_connected_clients: live connections, by transport
//   - tablesync_frames_dropped_total: outbound frames lost to a full client queue
//   - tablesync_http_requests_total: HTTP requests by method, route and status
//   - tablesync_http_request_duration_seconds: HTTP latency by method and route
type Recorder struct {
	registry *prometheus.Registry

	eventsTotal      *prometheus.CounterVec
	droppedEvents    *prometheus.CounterVec
	connectedClients *prometheus.GaugeVec
	framesDropped    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newRecorder(registry)
}

func newRecorder(registry *prometheus.Registry) *Recorder {
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of inbound events applied",
		}, []string{"event"}),

		droppedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Total number of inbound events rejected without a broadcast",
		}, []string{"event", "reason"}),

		connectedClients: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of connected participants",
		}, []string{"transport"}),

		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Outbound frames discarded because a client queue was full",
		}, []string{"transport"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// EventProcessed counts an applied inbound event
func (r *Recorder) EventProcessed(event string) {
	r.eventsTotal.WithLabelValues(event).Inc()
}

// EventDropped counts a rejected inbound event
func (r *Recorder) EventDropped(event, reason string) {
	r.droppedEvents.WithLabelValues(event, reason).Inc()
}

// ClientConnected increments the live connection gauge
func (r *Recorder) ClientConnected(transport string) {
	r.connectedClients.WithLabelValues(transport).Inc()
}

// ClientDisconnected decrements the live connection gauge
func (r *Recorder) ClientDisconnected(transport string) {
	r.connectedClients.WithLabelValues(transport).Dec()
}

// FrameDropped counts an outbound frame lost to backpressure
func (r *Recorder) FrameDropped(transport string) {
	r.framesDropped.WithLabelValues(transport).Inc()
}

// ObserveHTTP records one finished HTTP request
func (r *Recorder) ObserveHTTP(method, route string, status int, seconds float64) {
	r.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
