// Package metrics defines the Prometheus metrics exported by the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fluorescence_scan"

// Metrics contains all service metrics.
type Metrics struct {
	// Store metrics
	StoreQueries         *prometheus.CounterVec
	StoreQueryDuration   *prometheus.HistogramVec
	StoreQuarantinedRows prometheus.Counter

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// GraphQL metrics
	Operations        *prometheus.CounterVec
	OperationDuration prometheus.Histogram
}

// New creates a Metrics instance and registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "queries_total",
				Help:      "Total number of store queries by operation and outcome",
			},
			[]string{"operation", "status"},
		),

		StoreQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "query_duration_seconds",
				Help:      "Store query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		StoreQuarantinedRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "quarantined_rows_total",
				Help:      "Total number of rows excluded from results for failing validation",
			},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Total number of cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),

		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operations_total",
				Help:      "Total number of GraphQL operations by outcome (ok, partial, error)",
			},
			[]string{"status"},
		),

		OperationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operation_duration_seconds",
				Help:      "GraphQL operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		m.StoreQueries,
		m.StoreQueryDuration,
		m.StoreQuarantinedRows,
		m.CacheLookups,
		m.Operations,
		m.OperationDuration,
	)
	return m
}

// ObserveQuery records the outcome and duration of a store query.
func (m *Metrics) ObserveQuery(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreQueries.WithLabelValues(operation, status).Inc()
	m.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveOperation records the outcome and duration of a GraphQL operation.
// An operation that returned data alongside errors is partial.
func (m *Metrics) ObserveOperation(start time.Time, hasData bool, errs int) {
	status := "ok"
	switch {
	case errs > 0 && hasData:
		status = "partial"
	case errs > 0:
		status = "error"
	}
	m.Operations.WithLabelValues(status).Inc()
	m.OperationDuration.Observe(time.Since(start).Seconds())
}
