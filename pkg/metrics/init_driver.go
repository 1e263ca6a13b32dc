package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDriverMetrics() {
	r.DriverRunning = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netview_driver_running",
			Help: "Whether the animation driver is started (1) or stopped (0)",
		},
	)

	r.DriverInterval = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netview_driver_interval_seconds",
			Help: "Configured animation tick interval",
		},
	)
}
