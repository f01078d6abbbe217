// Package metrics exposes Prometheus metrics for the router: decision
// counters, confidence distribution, feedback outcomes, cache
// effectiveness, and HTTP request metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns every Prometheus metric the service emits. It
// implements the routing and cache recorder interfaces.
type Collector struct {
	routingDecisions   *prometheus.CounterVec
	routingConfidence  prometheus.Histogram
	feedbackOutcomes   *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	httpActiveRequests prometheus.Gauge
}

// NewCollector registers all metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh
// registry to avoid duplicate registration.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		routingDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentroute",
			Name:      "routing_decisions_total",
			Help:      "Routing decisions by chosen agent, retrieval stage and substitution.",
		}, []string{"agent", "stage", "substituted"}),

		routingConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentroute",
			Name:      "routing_confidence",
			Help:      "Distribution of recorded routing confidence.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),

		feedbackOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentroute",
			Name:      "feedback_outcomes_total",
			Help:      "Feedback submissions by outcome.",
		}, []string{"outcome"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentroute",
			Name:      "kg_cache_hits_total",
			Help:      "Knowledge graph cache hits by entry kind.",
		}, []string{"kind"}),

		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentroute",
			Name:      "kg_cache_misses_total",
			Help:      "Knowledge graph cache misses by entry kind.",
		}, []string{"kind"}),

		storeQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentroute",
			Name:      "store_query_duration_seconds",
			Help:      "Knowledge graph store query latency by operation kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentroute",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status class.",
		}, []string{"method", "path", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentroute",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		httpActiveRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentroute",
			Name:      "http_active_requests",
			Help:      "In-flight HTTP requests.",
		}),
	}
}

// RecordRoutingDecision counts a decision and observes its confidence.
func (c *Collector) RecordRoutingDecision(agent, stage string, confidence float64, substituted bool) {
	c.routingDecisions.WithLabelValues(agent, stage, strconv.FormatBool(substituted)).Inc()
	c.routingConfidence.Observe(confidence)
}

// RecordFeedback counts a feedback submission.
func (c *Collector) RecordFeedback(outcome string) {
	c.feedbackOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit(kind string) {
	c.cacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss counts a cache miss.
func (c *Collector) RecordCacheMiss(kind string) {
	c.cacheMisses.WithLabelValues(kind).Inc()
}

// RecordStoreQuery observes the latency of one store operation.
func (c *Collector) RecordStoreQuery(operation string, duration time.Duration) {
	c.storeQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest counts a completed request and its latency.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := statusClass(statusCode)
	c.httpRequests.WithLabelValues(method, path, status).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncActiveRequests tracks an in-flight request.
func (c *Collector) IncActiveRequests() { c.httpActiveRequests.Inc() }

// DecActiveRequests releases an in-flight request.
func (c *Collector) DecActiveRequests() { c.httpActiveRequests.Dec() }

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
