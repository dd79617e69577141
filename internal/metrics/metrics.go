// Package metrics exposes Prometheus instrumentation for report generation
// and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportMetrics records report generation outcomes and durations.
type ReportMetrics struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewReportMetrics builds a self-contained registry so tests can construct
// as many instances as they like without duplicate-registration panics.
func NewReportMetrics() *ReportMetrics {
	registry := prometheus.NewRegistry()
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_generation_duration_seconds",
		Help:    "Duration of report generation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generation_success_total",
		Help: "Successful report generation runs.",
	}, []string{"type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generation_failure_total",
		Help: "Failed report generation runs.",
	}, []string{"type", "reason"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status class.",
	}, []string{"route", "status"})
	registry.MustRegister(duration, success, failure, requests)
	return &ReportMetrics{
		registry: registry,
		duration: duration,
		success:  success,
		failure:  failure,
		requests: requests,
	}
}

func (m *ReportMetrics) ObserveGeneration(reportType string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(reportType)).Observe(d.Seconds())
}

func (m *ReportMetrics) IncSuccess(reportType string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(reportType)).Inc()
}

func (m *ReportMetrics) IncFailure(reportType string, reason string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(reportType), normalizeLabel(reason)).Inc()
}

func (m *ReportMetrics) IncRequest(route string, status string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(route), normalizeLabel(status)).Inc()
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *ReportMetrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
