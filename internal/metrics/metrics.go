// Package metrics exposes tradescan Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensource-finance/tradescan/internal/domain"
)

const namespace = "tradescan"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	documentsExtracted *prometheus.CounterVec
	extractionCache    *prometheus.CounterVec
	comparisons        *prometheus.CounterVec
	cognitiveScore     prometheus.Histogram
	alerts             *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers all collectors, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)

	m := &Metrics{
		registry: reg,
		documentsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_extracted_total",
			Help:      "Documents run through field extraction.",
		}, []string{"source"}),
		extractionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_cache_total",
			Help:      "Extraction cache lookups by result.",
		}, []string{"result"}),
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Completed multi-document comparisons by cognitive tier.",
		}, []string{"tier"}),
		cognitiveScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cognitive_score",
			Help:      "Final cognitive score of each comparison.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Fraud and pattern alerts raised.",
		}, []string{"kind", "severity"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of analysis stages.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"stage"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.documentsExtracted,
		m.extractionCache,
		m.comparisons,
		m.cognitiveScore,
		m.alerts,
		m.stageDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// DocumentExtracted counts one extraction. source is "api", "cli" or "worker".
func (m *Metrics) DocumentExtracted(source string) {
	if m == nil {
		return
	}
	m.documentsExtracted.WithLabelValues(source).Inc()
}

// CacheLookup counts an extraction cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.extractionCache.WithLabelValues(result).Inc()
}

// ComparisonCompleted records the outcome of one comparison.
func (m *Metrics) ComparisonCompleted(report *domain.ComparisonReport) {
	if m == nil || report == nil {
		return
	}
	m.comparisons.WithLabelValues(string(report.CognitiveTier)).Inc()
	m.cognitiveScore.Observe(float64(report.CognitiveScore))
	for _, a := range report.FraudAlerts {
		m.alerts.WithLabelValues(a.Type, string(a.Severity)).Inc()
	}
	for _, a := range report.PatternAlerts {
		m.alerts.WithLabelValues(a.Type, string(a.Severity)).Inc()
	}
}

// ObserveStage records how long an analysis stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
