// Package metrics exposes Prometheus collectors for the engine.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opserp/internal/domain/events"
	"opserp/internal/infrastructure/storage/postgres"
)

const namespace = "opserp"

// Metrics holds the collectors. Each instance owns its registry so that
// tests can build one without touching the global default.
type Metrics struct {
	registry *prometheus.Registry

	Transitions     *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	OutboxDelivered prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Purchase request status transitions, by source and target status.",
		}, []string{"from", "to"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OutboxDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_delivered_total",
			Help:      "Outbox messages delivered to the event stream.",
		}),
	}

	reg.MustRegister(
		m.Transitions,
		m.HTTPRequests,
		m.HTTPDuration,
		m.OutboxDelivered,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterPool exports connection pool gauges read at scrape time.
func (m *Metrics) RegisterPool(pool interface{ Stats() postgres.PoolStats }) {
	gauge := func(name, help string, read func(postgres.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(pool.Stats()) })
	}

	m.registry.MustRegister(
		gauge("total_conns", "Open connections.", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("acquired_conns", "Connections in use.", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("idle_conns", "Idle connections.", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("max_conns", "Pool size limit.", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) }),
	)
}

// GinMiddleware records request count and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

var _ events.Publisher = (*CountingPublisher)(nil)

// CountingPublisher counts status transitions on their way to the outbox.
// Counts are taken before commit and include transitions later rolled back.
type CountingPublisher struct {
	next    events.Publisher
	counter *prometheus.CounterVec
}

// CountTransitions wraps next.
func (m *Metrics) CountTransitions(next events.Publisher) *CountingPublisher {
	return &CountingPublisher{next: next, counter: m.Transitions}
}

// Publish implements events.Publisher.
func (p *CountingPublisher) Publish(ctx context.Context, event events.StatusChanged) error {
	if err := p.next.Publish(ctx, event); err != nil {
		return err
	}
	p.counter.WithLabelValues(event.FromStatus, event.ToStatus).Inc()
	return nil
}

var _ postgres.OutboxHandler = (*CountingHandler)(nil)

// CountingHandler counts successful outbox deliveries.
type CountingHandler struct {
	next    postgres.OutboxHandler
	counter prometheus.Counter
}

// CountDeliveries wraps next.
func (m *Metrics) CountDeliveries(next postgres.OutboxHandler) *CountingHandler {
	return &CountingHandler{next: next, counter: m.OutboxDelivered}
}

// Handle implements postgres.OutboxHandler.
func (h *CountingHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if err := h.next.Handle(ctx, msg); err != nil {
		return err
	}
	h.counter.Inc()
	return nil
}
