// Package metrics exposes Prometheus metrics for HTTP traffic, feed
// fetching, and enrichment outcomes.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	feedFetches     *prometheus.CounterVec
	enrichTasks     *prometheus.CounterVec
	sseConnections  prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worldintel_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worldintel_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		feedFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worldintel_feed_fetches_total",
			Help: "Feed fetch outcomes by source and result.",
		}, []string{"src", "result"}),
		enrichTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worldintel_enrich_tasks_total",
			Help: "Enrichment task outcomes by task and result.",
		}, []string{"task", "result"}),
		sseConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worldintel_sse_connections",
			Help: "Open SSE connections.",
		}),
	}
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestCount.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// FeedFetch records one feed fetch outcome ("ok" or "error").
func (m *Metrics) FeedFetch(src, result string) {
	m.feedFetches.WithLabelValues(src, result).Inc()
}

// EnrichTask records one enrichment task outcome.
func (m *Metrics) EnrichTask(task, result string) {
	m.enrichTasks.WithLabelValues(task, result).Inc()
}

// SSEOpened marks a new SSE connection.
func (m *Metrics) SSEOpened() { m.sseConnections.Inc() }

// SSEClosed marks a closed SSE connection.
func (m *Metrics) SSEClosed() { m.sseConnections.Dec() }
