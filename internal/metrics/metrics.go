// Package metrics exposes crawl counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the crawler's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PagesFetched          *prometheus.CounterVec
	RecordsExtractedTotal *prometheus.CounterVec
	Decisions             *prometheus.CounterVec
	CrawlRuns             *prometheus.CounterVec
	CrawlDuration         *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PagesFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_crawler_pages_fetched_total",
				Help: "Pages fetched per catalog, by result",
			},
			[]string{"catalog", "result"},
		),
		RecordsExtractedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_crawler_records_extracted_total",
				Help: "Raw product records extracted per catalog",
			},
			[]string{"catalog"},
		),
		Decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_crawler_pipeline_decisions_total",
				Help: "Pipeline decisions by stage, outcome and drop reason",
			},
			[]string{"stage", "outcome", "reason"},
		),
		CrawlRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_crawler_runs_total",
				Help: "Completed crawl runs per catalog, by result",
			},
			[]string{"catalog", "result"},
		),
		CrawlDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_crawler_run_duration_seconds",
				Help:    "Wall time of one crawl run",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"catalog"},
		),
	}
}

// ObserveDecision counts one pipeline decision.
func (m *Metrics) ObserveDecision(stage, outcome, reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(stage, outcome, reason).Inc()
}

// PageFetched counts a page fetch attempt.
func (m *Metrics) PageFetched(catalog string, err error) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(catalog, result(err)).Inc()
}

// RecordsExtracted adds n extracted records.
func (m *Metrics) RecordsExtracted(catalog string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsExtractedTotal.WithLabelValues(catalog).Add(float64(n))
}

// CrawlFinished records the outcome and duration of a run.
func (m *Metrics) CrawlFinished(catalog string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.CrawlRuns.WithLabelValues(catalog, result(err)).Inc()
	m.CrawlDuration.WithLabelValues(catalog).Observe(took.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
