package extractor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"discount-extractor/internal/types"
)

// Metrics bundles Prometheus collectors for listing traversals.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesVisitedTotal prometheus.Counter
	ItemsTotal        prometheus.Counter
	PageDuration      prometheus.Histogram
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	LastRunPages      prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discount_pages_visited_total",
		Help: "Total listing pages extracted.",
	})
	items := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discount_items_extracted_total",
		Help: "Total discount records extracted.",
	})
	pageDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "discount_page_duration_seconds",
		Help:    "Time spent waiting for and extracting one listing page.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discount_page_retries_total",
		Help: "Total page reloads after a readiness timeout.",
	})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_errors_total",
		Help: "Total traversal failures by kind.",
	}, []string{"kind"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "discount_last_run_pages",
		Help: "Page count discovered by the most recent traversal.",
	})

	registry.MustRegister(pages, items, pageDuration, retries, errorsTotal, lastRun)

	return &Metrics{
		Registry:          registry,
		PagesVisitedTotal: pages,
		ItemsTotal:        items,
		PageDuration:      pageDuration,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
		LastRunPages:      lastRun,
	}
}

// ObservePage records one completed page.
func (m *Metrics) ObservePage(items int, d time.Duration) {
	if m == nil {
		return
	}
	m.PagesVisitedTotal.Inc()
	m.ItemsTotal.Add(float64(items))
	m.PageDuration.Observe(d.Seconds())
}

// IncRetry counts a page reload.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// ObserveError counts a traversal failure under its kind.
func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(types.ErrorKind(err)).Inc()
}

// SetTotalPages records the discovered page count.
func (m *Metrics) SetTotalPages(n int) {
	if m == nil {
		return
	}
	m.LastRunPages.Set(float64(n))
}
