// Package metrics exposes Prometheus instrumentation for the HTTP API, the
// stock ledger and backups. All collectors live on a private registry.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warehouse"

// Ledger failure kinds.
const (
	FailureValidation   = "validation"
	FailureNotFound     = "not_found"
	FailureConflict     = "conflict"
	FailureConsistency  = "consistency"
	FailurePersistence  = "persistence"
	FailureInsufficient = "insufficient_stock"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ledgerTransactions *prometheus.CounterVec
	ledgerUnits        *prometheus.CounterVec
	ledgerFailures     *prometheus.CounterVec

	backups *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ledgerTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_transactions_total",
			Help:      "Committed stock transactions by type.",
		}, []string{"type"}),
		ledgerUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_units_total",
			Help:      "Units moved by committed stock transactions, by type.",
		}, []string{"type"}),
		ledgerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_failures_total",
			Help:      "Rejected or failed stock transactions by failure kind.",
		}, []string{"kind"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Database backups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.ledgerTransactions,
		m.ledgerUnits,
		m.ledgerFailures,
		m.backups,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TransactionRecorded records one committed transaction.
func (m *Metrics) TransactionRecorded(txType string, quantity int) {
	if m == nil {
		return
	}
	m.ledgerTransactions.WithLabelValues(txType).Inc()
	m.ledgerUnits.WithLabelValues(txType).Add(float64(quantity))
}

// LedgerFailure records a transaction that was not committed.
func (m *Metrics) LedgerFailure(kind string) {
	if m == nil {
		return
	}
	m.ledgerFailures.WithLabelValues(kind).Inc()
}

// BackupFinished records the outcome of a backup run.
func (m *Metrics) BackupFinished(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.backups.WithLabelValues(result).Inc()
}
