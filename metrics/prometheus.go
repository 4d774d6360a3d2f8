package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import outcomes.
const (
	ImportSucceeded = "succeeded"
	ImportFailed    = "failed"
	ImportLocked    = "locked"
	ImportNotFound  = "not_found"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint", "status"},
	)
	importRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_runs_total",
			Help: "Import runs by outcome.",
		},
		[]string{"outcome"},
	)
	importRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_import_rows_total",
			Help: "Rows committed by imports.",
		},
	)
	importPricesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_import_prices_total",
			Help: "Price rows appended by imports.",
		},
	)
	importDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_import_duration_seconds",
			Help:    "Duration of import runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	flagReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_flag_reconcile_runs_total",
			Help: "Flag reconciliation runs by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(importRunsTotal)
	prometheus.MustRegister(importRowsTotal)
	prometheus.MustRegister(importPricesTotal)
	prometheus.MustRegister(importDuration)
	prometheus.MustRegister(flagReconcileTotal)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordImport records the outcome of an import run. Rows and prices are
// only counted for committed runs.
func RecordImport(outcome string, rows, prices int, duration time.Duration) {
	importRunsTotal.WithLabelValues(outcome).Inc()
	if outcome == ImportSucceeded {
		importRowsTotal.Add(float64(rows))
		importPricesTotal.Add(float64(prices))
	}
	if duration > 0 {
		importDuration.Observe(duration.Seconds())
	}
}

// RecordReconcile records a flag reconciliation run.
func RecordReconcile(err error) {
	if err != nil {
		flagReconcileTotal.WithLabelValues("failed").Inc()
		return
	}
	flagReconcileTotal.WithLabelValues("succeeded").Inc()
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
