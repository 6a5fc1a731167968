package bootstrap

import (
	"parkgate/internal/infra/metrics"
	"parkgate/internal/usecase/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

var MetricsModule = fx.Module("metrics",
	fx.Provide(
		NewRegistry,
		NewMetricsRecorder,
	),
)

// NewRegistry is a dedicated registry so /metrics exposes only what this
// process registers, not the global default set.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewMetricsRecorder(registry *prometheus.Registry) shared.MetricsRecorder {
	return metrics.NewPrometheusMetrics(registry)
}
