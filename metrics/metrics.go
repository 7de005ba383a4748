// Package metrics exposes Prometheus counters for the HTTP surface, the event bus and the odds proxy.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"sportsbook/events"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server reports
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec

	stakes  prometheus.Counter
	payouts prometheus.Counter

	oddsCacheHits      prometheus.Counter
	oddsUpstreamErrors prometheus.Counter

	settlements *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsbook_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sportsbook_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsbook_events_total",
			Help: "Committed domain events by type",
		}, []string{"type"}),
		stakes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsbook_stakes_total",
			Help: "Sum of stakes placed",
		}),
		payouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsbook_payouts_total",
			Help: "Sum of payouts credited to won wagers",
		}),
		oddsCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsbook_odds_cache_hits_total",
			Help: "Odds requests served from cache",
		}),
		oddsUpstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsbook_odds_upstream_errors_total",
			Help: "Odds provider failures",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsbook_settlement_messages_total",
			Help: "Result messages consumed by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.events,
		m.stakes, m.payouts,
		m.oddsCacheHits, m.oddsUpstreamErrors,
		m.settlements,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register subscribes the recorder to every committed event
func (m *Metrics) Register(bus *events.Bus) {
	bus.SubscribeAll(m.handleEvent)
}

func (m *Metrics) handleEvent(_ context.Context, event events.Event) {
	m.events.WithLabelValues(string(event.Type())).Inc()

	switch e := event.(type) {
	case events.WagerPlacedEvent:
		m.stakes.Add(e.Stake.InexactFloat64())
	case events.WagerSettledEvent:
		if e.Payout.IsPositive() {
			m.payouts.Add(e.Payout.InexactFloat64())
		}
	}
}

// OddsCacheHit counts an odds request answered from cache
func (m *Metrics) OddsCacheHit() {
	m.oddsCacheHits.Inc()
}

// OddsUpstreamError counts a failed provider call
func (m *Metrics) OddsUpstreamError() {
	m.oddsUpstreamErrors.Inc()
}

// SettlementMessage counts a consumed result message by outcome
func (m *Metrics) SettlementMessage(outcome string) {
	m.settlements.WithLabelValues(outcome).Inc()
}
