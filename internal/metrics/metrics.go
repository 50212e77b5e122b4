// Package metrics exposes Prometheus instrumentation for the dashboard:
// catalog query latency and failures, HTTP traffic, and the loaded dataset size.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nao1215/retailsql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "retailsql"

// Metrics owns a registry and the collectors registered on it.
// It implements retailsql.QueryObserver.
type Metrics struct {
	registry *prometheus.Registry

	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
	QueryRows     *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	DatasetRows *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Duration of catalog queries in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		QueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "Total number of failed catalog queries",
			},
			[]string{"query", "error_type"},
		),
		QueryRows: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_result_rows",
				Help:      "Number of rows returned by catalog queries",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 1000, 10000},
			},
			[]string{"query"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DatasetRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Dataset rows by cleaning outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveQuery records one catalog query run. Unknown names share one label value.
func (m *Metrics) ObserveQuery(name string, duration time.Duration, rows int, err error) {
	if errors.Is(err, retailsql.ErrQueryNotFound) {
		name = retailsql.UnknownQueryName
	}
	m.QueryDuration.WithLabelValues(name).Observe(duration.Seconds())
	if err != nil {
		m.QueryErrors.WithLabelValues(name, errorType(err)).Inc()
		return
	}
	m.QueryRows.WithLabelValues(name).Observe(float64(rows))
}

// ObserveHTTP records one served request. route is the chi route pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetDataset publishes the cleaning statistics of the loaded dataset
func (m *Metrics) SetDataset(stats retailsql.CleaningStats) {
	m.DatasetRows.WithLabelValues("read").Set(float64(stats.Read))
	m.DatasetRows.WithLabelValues("dropped_missing").Set(float64(stats.DroppedMissing))
	m.DatasetRows.WithLabelValues("dropped_quantity").Set(float64(stats.DroppedQuantity))
	m.DatasetRows.WithLabelValues("kept").Set(float64(stats.Kept))
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func errorType(err error) string {
	switch {
	case errors.Is(err, retailsql.ErrQueryNotFound):
		return "not_found"
	case errors.Is(err, retailsql.ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, retailsql.ErrQueryExecution):
		return "execution"
	default:
		return "other"
	}
}
