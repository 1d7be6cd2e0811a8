package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
)

// Metrics holds the document generation collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	generations   *prometheus.CounterVec
	duration      *prometheus.SummaryVec
	artifactBytes *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	m.generations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docgen",
		Name:      "generations_total",
		Help:      "Document generation attempts by kind, format and outcome",
	}, []string{"kind", "format", "status"})
	m.duration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  "docgen",
		Name:       "generation_duration_seconds",
		Help:       "Time spent generating a document",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"kind"})
	m.artifactBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docgen",
		Name:      "artifact_bytes",
		Help:      "Size of published artifacts",
		Buckets:   prometheus.ExponentialBuckets(4096, 4, 8),
	}, []string{"kind", "format"})

	m.Registry.MustRegister(
		m.generations,
		m.duration,
		m.artifactBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGeneration records one finished generation. status is StatusSuccess
// or the failure's error kind.
func (m *Metrics) ObserveGeneration(kind, format, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, format, status).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveArtifact(kind, format string, size int) {
	if m == nil {
		return
	}
	m.artifactBytes.WithLabelValues(kind, format).Observe(float64(size))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
