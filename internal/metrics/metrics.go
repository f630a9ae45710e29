// Package metrics exposes Prometheus counters for HTTP traffic and the stock
// ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/arsenal/internal/model"
)

const namespace = "arsenal"

// Metrics holds the collectors of one server. Each instance has its own
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	ledgerOps *prometheus.CounterVec
	ledgerQty *prometheus.CounterVec
	refusals  *prometheus.CounterVec
	transfers *prometheus.CounterVec
	published *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_total",
			Help:      "Committed ledger mutations by kind.",
		}, []string{"kind"}),
		ledgerQty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_quantity_total",
			Help:      "Units moved by committed ledger mutations, by kind.",
		}, []string{"kind"}),
		refusals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_refusals_total",
			Help:      "Mutations refused, by reason.",
		}, []string{"reason"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_transitions_total",
			Help:      "Transfers entering each status.",
		}, []string{"status"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Broker publish attempts by result.",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.ledgerOps, m.ledgerQty, m.refusals, m.transfers, m.published,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest records one finished HTTP request. route is the mux pattern,
// not the raw path, so IDs don't explode label cardinality.
func (m *Metrics) ObserveRequest(method, route string, code int, took time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(took.Seconds())
}

// RecordEvents counts committed ledger events.
func (m *Metrics) RecordEvents(events []model.LedgerEvent) {
	for _, ev := range events {
		qty := ev.DeltaTotal
		if qty == 0 {
			qty = ev.DeltaReserved
		}
		if qty < 0 {
			qty = -qty
		}
		m.ledgerOps.WithLabelValues(ev.Kind).Inc()
		m.ledgerQty.WithLabelValues(ev.Kind).Add(float64(qty))
	}
}

// RecordRefusal counts a mutation refused for reason.
func (m *Metrics) RecordRefusal(reason string) {
	m.refusals.WithLabelValues(reason).Inc()
}

// RecordTransfer counts a transfer entering status.
func (m *Metrics) RecordTransfer(status string) {
	m.transfers.WithLabelValues(status).Inc()
}

// RecordPublish counts one broker publish attempt.
func (m *Metrics) RecordPublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(result).Inc()
}
