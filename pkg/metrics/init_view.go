package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initViewMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netview_ticks_total",
			Help: "Total number of view ticks",
		},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netview_tick_duration_seconds",
			Help:    "Time spent in sync, flush and layout per tick",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02, 0.04, 0.1},
		},
	)

	r.EntitiesLive = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netview_entities_live",
			Help: "Visual entities currently in the scene",
		},
		[]string{"kind"},
	)

	r.EntitiesCreated = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netview_entities_created_total",
			Help: "Visual entities created by sync",
		},
		[]string{"kind"},
	)

	r.EntitiesRetired = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netview_entities_retired_total",
			Help: "Visual entities retired by sync",
		},
		[]string{"kind"},
	)

	r.EntitiesDropped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netview_entities_dropped_total",
			Help: "Entities retired before they ever reached the substrate",
		},
	)

	r.DanglingLinks = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netview_dangling_links_total",
			Help: "Snapshot links skipped because an endpoint node was missing",
		},
	)

	r.ExtentWidth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netview_extent_width",
			Help: "Width of the padded layout extent in world units",
		},
	)

	r.ExtentHeight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netview_extent_height",
			Help: "Height of the padded layout extent in world units",
		},
	)

	r.LayoutDisplacement = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netview_layout_max_displacement",
			Help:    "Largest node displacement per layout step",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
		},
	)
}
