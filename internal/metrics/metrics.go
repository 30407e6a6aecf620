// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	generations     *prometheus.CounterVec
	generationTime  prometheus.Histogram
	uploads         *prometheus.CounterVec
}

// New builds the collectors on a private registry, so several instances
// can coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60, 180},
			},
			[]string{"method", "endpoint"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_plan_generations_total",
				Help: "Generated lesson plans by outcome",
			},
			[]string{"outcome"},
		),
		generationTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lesson_plan_generation_duration_seconds",
				Help:    "Time to produce one lesson plan document",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reference_document_uploads_total",
				Help: "Uploaded reference documents by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.generations,
		m.generationTime,
		m.uploads,
	)

	return m
}

// Generation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeFailure  = "failure"
)

func (m *Metrics) ObserveRequest(method, endpoint string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	m.generations.WithLabelValues(outcome).Inc()
	m.generationTime.Observe(d.Seconds())
}

func (m *Metrics) ObserveUpload(ok bool) {
	result := "accepted"
	if !ok {
		result = "rejected"
	}
	m.uploads.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
