// Package metrics provides Prometheus metrics for the metadata validator
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the validator
type Metrics struct {
	UploadsTotal      *prometheus.CounterVec
	ExtractDuration   *prometheus.HistogramVec
	ExtractedItems    *prometheus.CounterVec
	ExtractionEmpty   *prometheus.CounterVec
	ScoresTotal       *prometheus.CounterVec
	SearchQueries     prometheus.Counter
	ExportsTotal      *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		UploadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validator_uploads_total",
				Help: "Total number of uploaded files by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		ExtractDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "validator_extract_duration_seconds",
				Help:    "Duration of file extraction in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"kind"},
		),
		ExtractedItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validator_extracted_items_total",
				Help: "Total number of fields, rules, domains and sections extracted",
			},
			[]string{"kind"},
		),
		ExtractionEmpty: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validator_extraction_empty_total",
				Help: "Extractions that succeeded but found nothing",
			},
			[]string{"kind"},
		),
		ScoresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validator_scores_total",
				Help: "Total number of graded fields by band",
			},
			[]string{"band"},
		),
		SearchQueries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "validator_search_queries_total",
				Help: "Total number of search queries",
			},
		),
		ExportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validator_exports_total",
				Help: "Total number of database exports by target and outcome",
			},
			[]string{"target", "status"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validator_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "validator_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordExtraction records one parse of an uploaded file
func (m *Metrics) RecordExtraction(kind string, matchCount int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.UploadsTotal.WithLabelValues(kind, status).Inc()
	m.ExtractDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		return
	}
	m.ExtractedItems.WithLabelValues(kind).Add(float64(matchCount))
	if matchCount == 0 {
		m.ExtractionEmpty.WithLabelValues(kind).Inc()
	}
}

// RecordRejectedUpload records an upload refused before parsing
func (m *Metrics) RecordRejectedUpload(kind string) {
	m.UploadsTotal.WithLabelValues(kind, "rejected").Inc()
}

// RecordScore records the band of a graded field
func (m *Metrics) RecordScore(band string) {
	m.ScoresTotal.WithLabelValues(band).Inc()
}

// RecordExport records a database export
func (m *Metrics) RecordExport(target string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ExportsTotal.WithLabelValues(target, status).Inc()
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
