// Package metrics exposes parsing and indexing measurements as Prometheus
// metrics. A CLI run can dump them to a node-exporter textfile; the watcher
// can serve them over HTTP.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "mevzuat"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Parse metrics
	LinesParsed      prometheus.Counter
	ChunksTotal      prometheus.Counter
	ClausesTotal     prometheus.Counter
	DiagnosticsTotal prometheus.Counter
	RuleHits         *prometheus.CounterVec // labels: rule
	ChunkTokens      prometheus.Histogram

	// Index metrics
	DocumentsTotal   *prometheus.CounterVec   // labels: status
	DocumentDuration *prometheus.HistogramVec // labels: status

	// Sink metrics
	SinkWrites        *prometheus.CounterVec   // labels: sink, result
	SinkWriteDuration *prometheus.HistogramVec // labels: sink

	// Bus metrics
	BusEventsPublished *prometheus.CounterVec   // labels: topic
	BusErrors          *prometheus.CounterVec   // labels: topic
	BusPublishDuration *prometheus.HistogramVec // labels: topic

	// Search metrics
	SearchRequests *prometheus.CounterVec // labels: result
	SearchLatency  prometheus.Histogram
	SearchResults  prometheus.Histogram

	registry  *prometheus.Registry
	startTime time.Time
}

// New creates a metrics instance with its own registry. An empty namespace
// uses DefaultNamespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}
	histogramVec := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
	}

	m := &Metrics{
		LinesParsed:      counter("lines_parsed_total", "Total number of input lines read by the parser"),
		ChunksTotal:      counter("chunks_total", "Total number of article chunks emitted"),
		ClausesTotal:     counter("clauses_total", "Total number of numbered clauses in emitted chunks"),
		DiagnosticsTotal: counter("diagnostics_total", "Total number of input lines dropped by the parser"),
		RuleHits:         counterVec("rule_hits_total", "Lines consumed per classification rule", "rule"),
		ChunkTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_tokens",
			Help:      "Whitespace token count of emitted chunks",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),

		DocumentsTotal:   counterVec("documents_total", "Documents processed by outcome", "status"),
		DocumentDuration: histogramVec("document_duration_seconds", "Time to process one document", prometheus.DefBuckets, "status"),

		SinkWrites:        counterVec("sink_writes_total", "Sink writes by sink and result", "sink", "result"),
		SinkWriteDuration: histogramVec("sink_write_duration_seconds", "Sink write latency", prometheus.DefBuckets, "sink"),

		BusEventsPublished: counterVec("bus_events_published_total", "Events published by topic", "topic"),
		BusErrors:          counterVec("bus_errors_total", "Failed event publishes by topic", "topic"),
		BusPublishDuration: histogramVec("bus_publish_duration_seconds", "Event publish latency", prometheus.ExponentialBuckets(0.0001, 4, 8), "topic"),

		SearchRequests: counterVec("search_requests_total", "Search requests by result", "result"),
		SearchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency",
			Buckets:   prometheus.DefBuckets,
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),

		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.LinesParsed, m.ChunksTotal, m.ClausesTotal, m.DiagnosticsTotal, m.RuleHits, m.ChunkTokens,
		m.DocumentsTotal, m.DocumentDuration,
		m.SinkWrites, m.SinkWriteDuration,
		m.BusEventsPublished, m.BusErrors, m.BusPublishDuration,
		m.SearchRequests, m.SearchLatency, m.SearchResults,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Uptime returns the time since the metrics were created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Handler returns an HTTP handler that serves the metrics in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteToTextfile writes the current metrics to path in the text format read
// by the node exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordDocument records one processed document.
func (m *Metrics) RecordDocument(status string, duration time.Duration) {
	m.DocumentsTotal.WithLabelValues(status).Inc()
	m.DocumentDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordParse records the outcome of one parsing run.
func (m *Metrics) RecordParse(res *statute.Result) {
	if res == nil {
		return
	}

	m.LinesParsed.Add(float64(res.Lines))
	m.ChunksTotal.Add(float64(len(res.Chunks)))
	m.DiagnosticsTotal.Add(float64(len(res.Diagnostics)))

	for rule, n := range res.RuleHits {
		m.RuleHits.WithLabelValues(rule).Add(float64(n))
	}

	for _, c := range res.Chunks {
		m.ClausesTotal.Add(float64(c.ClauseCount))
		m.ChunkTokens.Observe(float64(c.TokenCount))
	}
}

// RecordSinkWrite records one sink write.
func (m *Metrics) RecordSinkWrite(sink string, duration time.Duration, err error) {
	m.SinkWrites.WithLabelValues(sink, resultLabel(err)).Inc()
	m.SinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordBusPublish records one event publish.
func (m *Metrics) RecordBusPublish(topic string, latency time.Duration, err error) {
	if err != nil {
		m.BusErrors.WithLabelValues(topic).Inc()
		return
	}
	m.BusEventsPublished.WithLabelValues(topic).Inc()
	m.BusPublishDuration.WithLabelValues(topic).Observe(latency.Seconds())
}

// RecordSearch records one search request.
func (m *Metrics) RecordSearch(latency time.Duration, results int, err error) {
	m.SearchRequests.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return
	}
	m.SearchLatency.Observe(latency.Seconds())
	m.SearchResults.Observe(float64(results))
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
