package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/docflow/internal/core/domain"
)

// WorkerMetrics covers the ingestion event consumer process.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	transitionsTotal *prometheus.CounterVec
	handleErrors     *prometheus.CounterVec
	eventLag         *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "ingestion_transitions_total",
			Help:      "Total consumed ingestion status transitions by status.",
		},
		[]string{"service", "status"},
	)
	handleErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "event_handle_errors_total",
			Help:      "Total ingestion events that could not be handled.",
		},
		[]string{"service"},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between a status transition and its consumption.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(transitionsTotal, handleErrors, eventLag)

	return &WorkerMetrics{
		service:          service,
		registry:         registry,
		transitionsTotal: transitionsTotal,
		handleErrors:     handleErrors,
		eventLag:         eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveTransition(status domain.IngestionStatus, lag time.Duration) {
	m.transitionsTotal.WithLabelValues(m.service, string(status)).Inc()
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(m.service, string(status)).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordHandleError() {
	m.handleErrors.WithLabelValues(m.service).Inc()
}
