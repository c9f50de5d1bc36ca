package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Pipeline metrics
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	windowsBuilt *prometheus.CounterVec

	// Record metrics
	recordsParsed   prometheus.Counter
	recordsInvalid  prometheus.Counter
	recordsFiltered prometheus.Counter

	// Output metrics
	documentsRendered *prometheus.CounterVec
	archiveWrites     *prometheus.CounterVec

	// Flex upstream metrics
	flexFetches      *prometheus.CounterVec
	flexFetchSeconds prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flexmetrics_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"trigger", "status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flexmetrics_run_duration_seconds",
				Help:    "Pipeline run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		windowsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flexmetrics_windows_built_total",
				Help: "Total number of window summaries built",
			},
			[]string{"kind"},
		),
		recordsParsed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flexmetrics_records_parsed_total",
				Help: "Total number of trade records parsed from Flex statements",
			},
		),
		recordsInvalid: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flexmetrics_records_invalid_total",
				Help: "Total number of trade records dropped as invalid",
			},
		),
		recordsFiltered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flexmetrics_records_filtered_total",
				Help: "Total number of trade records excluded by the cost basis filter",
			},
		),
		documentsRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flexmetrics_documents_rendered_total",
				Help: "Total number of report documents rendered",
			},
			[]string{"kind"},
		),
		archiveWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flexmetrics_archive_writes_total",
				Help: "Total number of archive write operations",
			},
			[]string{"status"},
		),
		flexFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flexmetrics_flex_fetches_total",
				Help: "Total number of Flex statement fetches",
			},
			[]string{"status"},
		),
		flexFetchSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flexmetrics_flex_fetch_duration_seconds",
				Help:    "Flex statement fetch duration in seconds, including polling",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.windowsBuilt)
	reg.MustRegister(r.recordsParsed)
	reg.MustRegister(r.recordsInvalid)
	reg.MustRegister(r.recordsFiltered)
	reg.MustRegister(r.documentsRendered)
	reg.MustRegister(r.archiveWrites)
	reg.MustRegister(r.flexFetches)
	reg.MustRegister(r.flexFetchSeconds)

	return r
}

// RecordRun records a completed pipeline run.
func (r *Registry) RecordRun(trigger, status string, duration float64) {
	r.runsTotal.WithLabelValues(trigger, status).Inc()
	r.runDuration.Observe(duration)
}

// RecordWindow records a built window summary.
func (r *Registry) RecordWindow(kind string) {
	r.windowsBuilt.WithLabelValues(kind).Inc()
}

// RecordRecords records per-run record counts.
func (r *Registry) RecordRecords(parsed, invalid, filtered int) {
	r.recordsParsed.Add(float64(parsed))
	r.recordsInvalid.Add(float64(invalid))
	r.recordsFiltered.Add(float64(filtered))
}

// RecordDocument records a rendered report document.
func (r *Registry) RecordDocument(kind string) {
	r.documentsRendered.WithLabelValues(kind).Inc()
}

// RecordArchiveWrite records an archive write attempt.
func (r *Registry) RecordArchiveWrite(status string) {
	r.archiveWrites.WithLabelValues(status).Inc()
}

// RecordFlexFetch records a Flex statement fetch.
func (r *Registry) RecordFlexFetch(status string, duration float64) {
	r.flexFetches.WithLabelValues(status).Inc()
	r.flexFetchSeconds.Observe(duration)
}

// Handler returns an HTTP handler exposing the registry in the
// Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
