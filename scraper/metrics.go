package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for discovery and downloads.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	DiscoveredTotal *prometheus.CounterVec
	DownloadedTotal prometheus.Counter
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hunt_fetch_requests_total",
			Help: "Total HTTP requests issued for report files.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hunt_fetch_duration_seconds",
			Help:    "HTTP request latency for report fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	discovered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hunt_links_discovered_total",
			Help: "Report pages and data file links found while crawling.",
		},
		[]string{"kind"},
	)
	downloaded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hunt_files_downloaded_total",
			Help: "Report files saved to the raw directory.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hunt_fetch_retries_total",
			Help: "Total number of fetch retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hunt_fetch_errors_total",
			Help: "Total number of fetch errors by category.",
		},
		[]string{"category"},
	)

	registry.MustRegister(requests, requestDuration, discovered, downloaded, retries, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		DiscoveredTotal: discovered,
		DownloadedTotal: downloaded,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records a fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncDiscovered counts one discovered link ("page" or "file").
func (m *Metrics) IncDiscovered(kind string) {
	if m == nil {
		return
	}
	m.DiscoveredTotal.WithLabelValues(kind).Inc()
}

// IncDownloaded counts one saved file.
func (m *Metrics) IncDownloaded() {
	if m == nil {
		return
	}
	m.DownloadedTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a category label.
func (m *Metrics) IncError(category string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(category).Inc()
}
