// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "nft_marketplace"

	LabelKind    = "kind"
	LabelOutcome = "outcome"
	LabelResult  = "result"
	LabelAction  = "action"
	LabelStatus  = "status"

	OutcomeSuccess     = "success"
	OutcomeNotReady    = "not_ready"
	OutcomeFetchFailed = "fetch_failed"

	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	CatalogFetches *prometheus.CounterVec
	DroppedRecords *prometheus.CounterVec
	CatalogSize    *prometheus.GaugeVec
	QueryLookups   *prometheus.CounterVec
	TrackedTxs     *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "fetches_total",
			Help:      "catalog builds by kind and outcome",
		}, []string{LabelKind, LabelOutcome}),
		DroppedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "dropped_records_total",
			Help:      "on-chain records skipped because they could not be fetched or converted",
		}, []string{LabelKind}),
		CatalogSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "size",
			Help:      "number of records in the last catalog build",
		}, []string{LabelKind}),
		QueryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query_cache",
			Name:      "lookups_total",
			Help:      "query cache lookups by result",
		}, []string{LabelResult}),
		TrackedTxs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transactions",
			Name:      "tracked_total",
			Help:      "tracked marketplace transactions by action and final status",
		}, []string{LabelAction, LabelStatus}),
	}
	m.registry.MustRegister(
		m.CatalogFetches,
		m.DroppedRecords,
		m.CatalogSize,
		m.QueryLookups,
		m.TrackedTxs,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCatalog(kind, outcome string, size, dropped int) {
	if m == nil {
		return
	}
	m.CatalogFetches.WithLabelValues(kind, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.CatalogSize.WithLabelValues(kind).Set(float64(size))
	}
	if dropped > 0 {
		m.DroppedRecords.WithLabelValues(kind).Add(float64(dropped))
	}
}

func (m *Metrics) ObserveQuery(result string) {
	if m == nil {
		return
	}
	m.QueryLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTx(action, status string) {
	if m == nil {
		return
	}
	m.TrackedTxs.WithLabelValues(action, status).Inc()
}
