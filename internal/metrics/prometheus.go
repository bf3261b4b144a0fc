package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	connectionsTotal   prometheus.Counter
	connectionsActive  prometheus.Gauge
	tlsConnectionTotal prometheus.Counter

	loginAttemptsTotal *prometheus.CounterVec

	requestsTotal   *prometheus.CounterVec
	badCommandTotal prometheus.Counter

	messagesQueuedTotal    prometheus.Counter
	messagesDeliveredTotal prometheus.Counter
	messagesCachedTotal    prometheus.Counter
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tchatd_connections_total",
			Help: "Total number of connections opened.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tchatd_connections_active",
			Help: "Number of currently active connections.",
		}),
		tlsConnectionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tchatd_tls_connections_total",
			Help: "Total number of TLS connections established.",
		}),

		loginAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tchatd_login_attempts_total",
			Help: "Total number of Login requests, labeled by result.",
		}, []string{"result"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tchatd_requests_total",
			Help: "Total number of requests processed, labeled by kind.",
		}, []string{"kind"}),
		badCommandTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tchatd_bad_command_total",
			Help: "Total number of requests that failed to parse.",
		}),

		messagesQueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tchatd_messages_queued_total",
			Help: "Total number of Send requests accepted for delivery.",
		}),
		messagesDeliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tchatd_messages_delivered_total",
			Help: "Total number of Recv responses queued to a recipient whose mailbox was authenticated.",
		}),
		messagesCachedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tchatd_messages_cached_total",
			Help: "Total number of messages buffered for an offline recipient.",
		}),
	}

	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.tlsConnectionTotal,
		c.loginAttemptsTotal,
		c.requestsTotal,
		c.badCommandTotal,
		c.messagesQueuedTotal,
		c.messagesDeliveredTotal,
		c.messagesCachedTotal,
	)

	return c
}

// ConnectionOpened increments the connection counter and active gauge.
func (c *PrometheusCollector) ConnectionOpened() {
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

// ConnectionClosed decrements the active connections gauge.
func (c *PrometheusCollector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

// TLSConnectionEstablished increments the TLS connection counter.
func (c *PrometheusCollector) TLSConnectionEstablished() {
	c.tlsConnectionTotal.Inc()
}

// LoginAttempt increments the login attempts counter.
func (c *PrometheusCollector) LoginAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginAttemptsTotal.WithLabelValues(result).Inc()
}

// RequestProcessed increments the per-kind request counter.
func (c *PrometheusCollector) RequestProcessed(kind string) {
	c.requestsTotal.WithLabelValues(kind).Inc()
}

// BadCommand increments the parse-failure counter.
func (c *PrometheusCollector) BadCommand() {
	c.badCommandTotal.Inc()
}

// MessageQueued increments the accepted-Send counter.
func (c *PrometheusCollector) MessageQueued() {
	c.messagesQueuedTotal.Inc()
}

// MessageDelivered increments the delivered-Recv counter.
func (c *PrometheusCollector) MessageDelivered() {
	c.messagesDeliveredTotal.Inc()
}

// MessageCached increments the buffered-for-offline-recipient counter.
func (c *PrometheusCollector) MessageCached() {
	c.messagesCachedTotal.Inc()
}
