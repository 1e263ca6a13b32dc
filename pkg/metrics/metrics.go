package metrics

import (
	"runtime"
	"time"
)

// Entity kinds used as label values.
const (
	KindNode = "node"
	KindLink = "link"
)

// RecordTick records one view tick
func (r *Registry) RecordTick(s TickSample) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(s.Duration.Seconds())

	r.EntitiesLive.WithLabelValues(KindNode).Set(float64(s.Nodes))
	r.EntitiesLive.WithLabelValues(KindLink).Set(float64(s.Links))
	r.EntitiesCreated.WithLabelValues(KindNode).Add(float64(s.NodesCreated))
	r.EntitiesCreated.WithLabelValues(KindLink).Add(float64(s.LinksCreated))
	r.EntitiesRetired.WithLabelValues(KindNode).Add(float64(s.NodesRetired))
	r.EntitiesRetired.WithLabelValues(KindLink).Add(float64(s.LinksRetired))
	r.EntitiesDropped.Add(float64(s.Dropped))
	r.DanglingLinks.Add(float64(s.Dangling))

	r.ExtentWidth.Set(s.ExtentWidth)
	r.ExtentHeight.Set(s.ExtentHeight)
	r.LayoutDisplacement.Observe(s.MaxDisplacement)
}

// SetDriverState records whether the animation driver is running
func (r *Registry) SetDriverState(running bool, interval time.Duration) {
	if running {
		r.DriverRunning.Set(1)
	} else {
		r.DriverRunning.Set(0)
	}
	r.DriverInterval.Set(interval.Seconds())
}

// RecordSnapshot records a published snapshot generation
func (r *Registry) RecordSnapshot(generation uint64) {
	r.ProducerSnapshots.Inc()
	r.ProducerGeneration.Set(float64(generation))
}

// RecordMutation records one applied network mutation
func (r *Registry) RecordMutation(kind string) {
	r.ProducerMutations.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes process-level gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
}
