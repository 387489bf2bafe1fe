// Package metrics exposes Prometheus counters for the sync pipeline and HTTP API.
//
// All recording methods are safe to call on a nil *Collector, so components
// can take an optional collector without guarding every call.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "smartbookmarks"

// Collector holds the Prometheus metrics of one process.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	FeedEvents     *prometheus.CounterVec
	FeedDropped    *prometheus.CounterVec
	FeedSubscribed prometheus.Gauge

	RelayMessages *prometheus.CounterVec

	TitleFetches *prometheus.CounterVec
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
}

// NewCollector creates a collector backed by its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		FeedEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "changefeed_events_total",
				Help:      "Row changes published to the change feed",
			},
			[]string{"table", "event_type"},
		),
		FeedDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "changefeed_dropped_total",
				Help:      "Row changes dropped because a queue was full",
			},
			[]string{"table", "reason"},
		),
		FeedSubscribed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "changefeed_subscriptions",
				Help:      "Active change feed subscriptions",
			},
		),
		RelayMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "relay_messages_total",
				Help:      "Broadcast relay messages by direction",
			},
			[]string{"direction", "action"},
		),
		TitleFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "title_fetches_total",
				Help:      "Page title lookups by outcome",
			},
			[]string{"source"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "title_cache_hits_total",
				Help:      "Title cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "title_cache_misses_total",
				Help:      "Title cache misses",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.FeedEvents,
		c.FeedDropped,
		c.FeedSubscribed,
		c.RelayMessages,
		c.TitleFetches,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// FeedEvent counts a change published to the feed.
func (c *Collector) FeedEvent(table, eventType string) {
	if c == nil {
		return
	}
	c.FeedEvents.WithLabelValues(table, eventType).Inc()
}

// FeedDrop counts a change that could not be queued.
func (c *Collector) FeedDrop(table, reason string) {
	if c == nil {
		return
	}
	c.FeedDropped.WithLabelValues(table, reason).Inc()
}

// FeedSubscriptions adjusts the active subscription gauge by delta.
func (c *Collector) FeedSubscriptions(delta float64) {
	if c == nil {
		return
	}
	c.FeedSubscribed.Add(delta)
}

// RelayMessage counts a relay message; direction is "out", "in" or "ignored".
func (c *Collector) RelayMessage(direction, action string) {
	if c == nil {
		return
	}
	c.RelayMessages.WithLabelValues(direction, action).Inc()
}

// TitleFetch counts a title lookup result by source.
func (c *Collector) TitleFetch(source string) {
	if c == nil {
		return
	}
	c.TitleFetches.WithLabelValues(source).Inc()
}

// TitleCache counts a cache lookup.
func (c *Collector) TitleCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
	} else {
		c.CacheMisses.Inc()
	}
}
