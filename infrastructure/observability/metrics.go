package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application. It satisfies
// graphsync.Metrics, bus.Recorder and the websocket observers.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Tree metrics
	MutationsApplied  *prometheus.CounterVec
	MutationsRejected *prometheus.CounterVec
	LayoutDuration    prometheus.Histogram
	TreeSize          prometheus.Gauge

	// Authority link metrics
	RequestsSent   *prometheus.CounterVec
	FramesReceived prometheus.Counter
	Reconnects     prometheus.Counter

	// Websocket hub metrics, labelled by hub name
	SocketConnections   *prometheus.GaugeVec
	SocketFramesSent    *prometheus.CounterVec
	SocketFramesDropped *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MutationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_applied_total",
				Help:      "Confirmed mutations applied to the tree",
			},
			[]string{"action"},
		),
		MutationsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_rejected_total",
				Help:      "Mutations rejected by the tree",
			},
			[]string{"action", "reason"},
		),
		LayoutDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_duration_seconds",
				Help:      "Time spent computing a full layout",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
		),
		TreeSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tree_nodes",
				Help:      "Number of nodes in the tree after the last layout",
			},
		),
		RequestsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_sent_total",
				Help:      "Outbound requests sent to the mutation authority",
			},
			[]string{"command", "status"},
		),
		FramesReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_received_total",
				Help:      "Inbound frames received from the mutation authority",
			},
		),
		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authority_reconnects_total",
				Help:      "Reconnections to the mutation authority",
			},
		),
		SocketConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "socket_connections",
				Help:      "Open websocket connections",
			},
			[]string{"hub"},
		),
		SocketFramesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "socket_frames_sent_total",
				Help:      "Frames queued to websocket clients",
			},
			[]string{"hub"},
		),
		SocketFramesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "socket_frames_dropped_total",
				Help:      "Frames that could not be queued to a websocket client",
			},
			[]string{"hub"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MutationsApplied,
		c.MutationsRejected,
		c.LayoutDuration,
		c.TreeSize,
		c.RequestsSent,
		c.FramesReceived,
		c.Reconnects,
		c.SocketConnections,
		c.SocketFramesSent,
		c.SocketFramesDropped,
	)

	return c
}

// MutationApplied counts an accepted mutation
func (c *Collector) MutationApplied(action string) {
	c.MutationsApplied.WithLabelValues(action).Inc()
}

// MutationRejected counts a rejected mutation by error type
func (c *Collector) MutationRejected(action, reason string) {
	c.MutationsRejected.WithLabelValues(action, reason).Inc()
}

// LayoutComputed records layout time and the resulting tree size
func (c *Collector) LayoutComputed(elapsed time.Duration, nodes int) {
	c.LayoutDuration.Observe(elapsed.Seconds())
	c.TreeSize.Set(float64(nodes))
}

// RequestSent counts an outbound request
func (c *Collector) RequestSent(commandType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.RequestsSent.WithLabelValues(commandType, status).Inc()
}

// FrameReceived counts an inbound frame
func (c *Collector) FrameReceived() {
	c.FramesReceived.Inc()
}

// Reconnected counts a reconnection to the authority
func (c *Collector) Reconnected() {
	c.Reconnects.Inc()
}

// SocketOpened counts a registered websocket client
func (c *Collector) SocketOpened(hub string) {
	c.SocketConnections.WithLabelValues(hub).Inc()
}

// SocketClosed counts an unregistered websocket client
func (c *Collector) SocketClosed(hub string) {
	c.SocketConnections.WithLabelValues(hub).Dec()
}

// SocketFrameSent counts a frame queued to a client
func (c *Collector) SocketFrameSent(hub string) {
	c.SocketFramesSent.WithLabelValues(hub).Inc()
}

// SocketFrameDropped counts a frame a client or the hub could not take
func (c *Collector) SocketFrameDropped(hub string) {
	c.SocketFramesDropped.WithLabelValues(hub).Inc()
}

// ObserveHTTP records one HTTP request
func (c *Collector) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
