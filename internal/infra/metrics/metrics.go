package metrics

import (
	"parkgate/internal/usecase/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements the usecase metrics contract on a Prometheus
// registry.
type PrometheusMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
	alerts      *prometheus.CounterVec
	scanSeconds prometheus.Histogram
}

var _ shared.MetricsRecorder = (*PrometheusMetrics)(nil)

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parkgate_transitions_total",
			Help: "Lifecycle transitions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "parkgate_slot_conflicts_total",
			Help: "Requested intervals rejected because the slot was taken.",
		}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parkgate_longstay_alerts_total",
			Help: "Long-stay alerts fired by severity.",
		}, []string{"severity"}),
		scanSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "parkgate_monitor_scan_seconds",
			Help:    "Duration of long-stay monitor scans.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *PrometheusMetrics) RecordTransition(operation, outcome string) {
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *PrometheusMetrics) RecordConflict() {
	m.conflicts.Inc()
}

func (m *PrometheusMetrics) RecordLongStayAlert(severity string) {
	m.alerts.WithLabelValues(severity).Inc()
}

func (m *PrometheusMetrics) ObserveScanDuration(seconds float64) {
	m.scanSeconds.Observe(seconds)
}
