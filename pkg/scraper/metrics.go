package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the vendor scrapers.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProductsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	EmptyTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescope_requests_total",
			Help: "Total HTTP requests issued by vendor scrapers.",
		},
		[]string{"vendor", "stage"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricescope_request_duration_seconds",
			Help:    "Vendor request latency per stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"vendor", "stage"},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescope_products_normalized_total",
			Help: "Total products successfully normalized per vendor.",
		},
		[]string{"vendor"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescope_errors_total",
			Help: "Total scrape errors by vendor and error kind.",
		},
		[]string{"vendor", "kind"},
	)
	empty := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescope_empty_results_total",
			Help: "Total scrapes that found no candidate for a vendor.",
		},
		[]string{"vendor"},
	)

	registry.MustRegister(requests, requestDuration, products, errorsTotal, empty)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		ProductsTotal:   products,
		ErrorsTotal:     errorsTotal,
		EmptyTotal:      empty,
	}
}

// IncRequest increments the request counter for a vendor stage.
func (m *Metrics) IncRequest(vendor, stage string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(vendor, stage).Inc()
}

// ObserveDuration records a stage duration.
func (m *Metrics) ObserveDuration(vendor, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(vendor, stage).Observe(d.Seconds())
}

// IncProduct increments the normalized-products counter.
func (m *Metrics) IncProduct(vendor string) {
	if m == nil {
		return
	}
	m.ProductsTotal.WithLabelValues(vendor).Inc()
}

// IncError increments the errors counter for a vendor and error kind.
func (m *Metrics) IncError(vendor, kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(vendor, kind).Inc()
}

// IncEmpty increments the empty-results counter.
func (m *Metrics) IncEmpty(vendor string) {
	if m == nil {
		return
	}
	m.EmptyTotal.WithLabelValues(vendor).Inc()
}
