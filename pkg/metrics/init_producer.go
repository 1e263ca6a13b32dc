package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initProducerMetrics() {
	r.ProducerGeneration = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netview_producer_generation",
			Help: "Generation of the most recently published snapshot",
		},
	)

	r.ProducerSnapshots = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netview_producer_snapshots_total",
			Help: "Snapshots published to the view",
		},
	)

	r.ProducerMutations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netview_producer_mutations_total",
			Help: "Network mutations applied by the producer",
		},
		[]string{"kind"},
	)
}
