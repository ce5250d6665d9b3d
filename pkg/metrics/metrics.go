// Package metrics - Prometheus метрики оркестратора.
//
// Все методы безопасны для nil *Metrics: без метрик код работает так же.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "formgen"

// Metrics - набор коллекторов одного оркестратора.
type Metrics struct {
	Requests    *prometheus.CounterVec
	Extractions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	InFlight    prometheus.Gauge
}

// New регистрирует коллекторы в reg. nil reg - prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of generate/edit requests by outcome",
			},
			[]string{"operation", "outcome"},
		),
		Extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Total number of model responses by extraction status",
			},
			[]string{"status"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of generate/edit requests in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"operation"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests waiting for the model",
			},
		),
	}
}

// Begin отмечает начало запроса; возвращённая функция его завершает.
func (m *Metrics) Begin(operation string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.InFlight.Inc()
	return func(outcome string) {
		m.InFlight.Dec()
		m.Requests.WithLabelValues(operation, outcome).Inc()
		m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// ObserveExtraction считает исход извлечения.
func (m *Metrics) ObserveExtraction(status string) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(status).Inc()
}
