// Package metrics exposes Prometheus instrumentation for the filing pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	FetchOK        = "ok"
	FetchStatus    = "status"
	FetchTransport = "transport"
)

// Index outcomes.
const (
	IndexIndexed    = "indexed"
	IndexNotIndexed = "not_indexed"
	IndexFailed     = "failed"
)

// Export outcomes.
const (
	ExportOK          = "ok"
	ExportFetchFailed = "fetch_failed"
	ExportWriteFailed = "write_failed"
)

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics tracks registry fetches, cache behavior, indexing and exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Fetches        *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	CacheBuilds    prometheus.Counter
	BuildDuration  prometheus.Histogram
	IndexOutcomes  *prometheus.CounterVec
	Exports        *prometheus.CounterVec
	ExportedTables prometheus.Counter
}

// New registers all metrics with reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_export_fetches_total",
			Help: "Registry HTTP fetches by outcome",
		}, []string{"outcome"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgar_export_fetch_duration_seconds",
			Help:    "Duration of registry HTTP fetches",
			Buckets: durationBuckets,
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_export_cache_lookups_total",
			Help: "Filing cache lookups by result (hit, miss)",
		}, []string{"result"}),
		CacheBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgar_export_cache_builds_total",
			Help: "Filing pipeline builds run by the cache",
		}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgar_export_cache_build_duration_seconds",
			Help:    "Duration of filing pipeline builds",
			Buckets: durationBuckets,
		}),
		IndexOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_export_index_outcomes_total",
			Help: "Report index results per filing",
		}, []string{"result"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_export_exports_total",
			Help: "Workbook exports by outcome",
		}, []string{"outcome"}),
		ExportedTables: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgar_export_exported_tables_total",
			Help: "Tables written to exported workbooks",
		}),
	}
}

// ObserveFetch records one fetch and its duration.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveFetch(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(time.Since(start).Seconds())
}

// CacheHit records a lookup served from a published entry, including waiters on a build.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a lookup that ran a build.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveBuild records one pipeline build.
func (m *Metrics) ObserveBuild(start time.Time) {
	if m == nil {
		return
	}
	m.CacheBuilds.Inc()
	m.BuildDuration.Observe(time.Since(start).Seconds())
}

// IndexResult records one report-index outcome.
func (m *Metrics) IndexResult(result string) {
	if m == nil {
		return
	}
	m.IndexOutcomes.WithLabelValues(result).Inc()
}

// ExportResult records one export and the number of tables it wrote.
func (m *Metrics) ExportResult(outcome string, tables int) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(outcome).Inc()
	if tables > 0 {
		m.ExportedTables.Add(float64(tables))
	}
}
