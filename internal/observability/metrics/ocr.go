package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OCRMetrics covers the worker side: dispatch outcomes and the timeout sweep.
type OCRMetrics struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchInFlight prometheus.Gauge
	sweepPromotions  prometheus.Counter
	sweepDuration    prometheus.Histogram
}

func NewOCRMetrics(service string) *OCRMetrics {
	registry := prometheus.NewRegistry()

	dispatchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aggregator",
			Subsystem: "ocr",
			Name:      "dispatch_total",
			Help:      "Total OCR dispatch attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	dispatchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aggregator",
			Subsystem: "ocr",
			Name:      "dispatch_duration_seconds",
			Help:      "OCR dispatch duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	dispatchInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aggregator",
			Subsystem: "ocr",
			Name:      "dispatch_in_flight",
			Help:      "Number of in-flight OCR dispatches.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sweepPromotions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aggregator",
			Subsystem: "ocr",
			Name:      "sweep_promotions_total",
			Help:      "Stale processing documents promoted to completed by the sweep.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sweepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aggregator",
			Subsystem: "ocr",
			Name:      "sweep_duration_seconds",
			Help:      "Timeout reconciliation sweep duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(dispatchTotal, dispatchDuration, dispatchInFlight, sweepPromotions, sweepDuration)

	return &OCRMetrics{
		registry:         registry,
		dispatchTotal:    dispatchTotal,
		dispatchDuration: dispatchDuration,
		dispatchInFlight: dispatchInFlight,
		sweepPromotions:  sweepPromotions,
		sweepDuration:    sweepDuration,
	}
}

func (m *OCRMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *OCRMetrics) StartDispatch() {
	m.dispatchInFlight.Inc()
}

func (m *OCRMetrics) FinishDispatch(service string, duration time.Duration, err error) {
	m.dispatchInFlight.Dec()

	outcome := "submitted"
	if err != nil {
		outcome = "failed"
	}

	m.dispatchTotal.WithLabelValues(service, outcome).Inc()
	m.dispatchDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *OCRMetrics) ObserveSweep(duration time.Duration, promoted int) {
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepPromotions.Add(float64(promoted))
}
