package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// View Metrics
	TicksTotal         prometheus.Counter
	TickDuration       prometheus.Histogram
	EntitiesLive       *prometheus.GaugeVec
	EntitiesCreated    *prometheus.CounterVec
	EntitiesRetired    *prometheus.CounterVec
	EntitiesDropped    prometheus.Counter
	DanglingLinks      prometheus.Counter
	ExtentWidth        prometheus.Gauge
	ExtentHeight       prometheus.Gauge
	LayoutDisplacement prometheus.Histogram

	// Driver Metrics
	DriverRunning  prometheus.Gauge
	DriverInterval prometheus.Gauge

	// Producer Metrics
	ProducerGeneration prometheus.Gauge
	ProducerSnapshots  prometheus.Counter
	ProducerMutations  *prometheus.CounterVec

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.RWMutex
}

// TickSample is what one view tick reports to the registry.
type TickSample struct {
	Duration time.Duration

	Nodes int
	Links int

	NodesCreated int
	LinksCreated int
	NodesRetired int
	LinksRetired int
	Dropped      int
	Dangling     int

	ExtentWidth     float64
	ExtentHeight    float64
	MaxDisplacement float64
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	r.initViewMetrics()
	r.initDriverMetrics()
	r.initProducerMetrics()
	r.initHTTPMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
