package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/plantbridge/internal/sensor"
)

const metricsNamespace = "plantbridge"

// Metrics holds the pipeline's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	messagesTotal  *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	patchedFields  *prometheus.CounterVec
	handleDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "messages_total",
			Help:      "Messages handled, by pipeline outcome",
		}, []string{"outcome"}),

		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "sensor_resolutions_total",
			Help:      "Successful sensor resolutions, by hit or created",
		}, []string{"result"}),

		patchedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "metadata_patches_total",
			Help:      "Sensor metadata fields updated by reconciliation",
		}, []string{"field"}),

		handleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "handle_duration_seconds",
			Help:      "Time to handle one message end to end",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	for _, c := range []prometheus.Collector{m.messagesTotal, m.resolutions, m.patchedFields, m.handleDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, o := range Outcomes {
		m.messagesTotal.WithLabelValues(string(o))
	}
	return m, nil
}

func (m *Metrics) recordOutcome(o Outcome, took time.Duration) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(string(o)).Inc()
	m.handleDuration.Observe(took.Seconds())
}

func (m *Metrics) recordResolution(res sensor.Resolution) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(res.Outcome)).Inc()
	for _, field := range res.Patched {
		m.patchedFields.WithLabelValues(field).Inc()
	}
}
