// Package netview ties the scene, the layout engine and the animation
// driver into a live view of an evolving network.
//
// A producer hands over immutable snapshots with Publish or exposes them
// through a Source. Every tick the view syncs the current snapshot into the
// scene, flushes pending entities to the substrate, runs one layout step,
// fits the viewport and requests a repaint, all under a single lock.
package netview

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-netview/pkg/anim"
	"github.com/dd0wney/cluso-netview/pkg/layout"
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/metrics"
	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// Source yields the snapshot to display. It is polled once per tick, outside
// the view lock, and must return a snapshot it will not mutate afterwards.
type Source interface {
	Snapshot() *netmodel.Snapshot
}

// SourceFunc adapts a function to Source.
type SourceFunc func() *netmodel.Snapshot

// Snapshot calls f.
func (f SourceFunc) Snapshot() *netmodel.Snapshot {
	return f()
}

// Options configures a View.
type Options struct {
	Scene scene.Options
	// Layout is used as given; the zero value selects layout.DefaultConfig.
	Layout layout.Config
	// Interval is the tick period and overrides Layout.Step, so the
	// integration step always matches the clock. Zero uses Layout.Step.
	Interval  time.Duration
	Substrate scene.Substrate
	Logger    logging.Logger
	Metrics   *metrics.Registry
}

// TickReport describes one tick.
type TickReport struct {
	Tick       uint64
	Generation uint64
	Sync       scene.SyncStats
	Flush      scene.FlushStats
	Layout     layout.Stats
	Extent     layout.Extent
	Duration   time.Duration
}

// View is the concurrency guard around a scene. All methods are safe for
// concurrent use.
type View struct {
	mu        sync.Mutex
	current   *netmodel.Snapshot
	source    Source
	scene     *scene.Scene
	engine    *layout.Engine
	substrate scene.Substrate
	tick      uint64
	last      TickReport

	publishMu   sync.Mutex
	publishedAt time.Time

	driver  *anim.Driver
	runID   string
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a stopped view.
func New(opts Options) (*View, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	runID := uuid.NewString()
	logger = logger.With(logging.Component("netview"), logging.RunID(runID))

	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.Interval > 0 {
		opts.Layout.Step = opts.Interval
	}
	if opts.Scene.Logger == nil {
		opts.Scene.Logger = logger
	}
	engine, err := layout.NewEngine(opts.Layout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout engine: %w", err)
	}

	sub := opts.Substrate
	if sub == nil {
		sub = scene.Discard{}
	}

	v := &View{
		scene:     scene.New(opts.Scene),
		engine:    engine,
		substrate: sub,
		runID:     runID,
		logger:    logger,
		metrics:   opts.Metrics,
	}

	v.driver = anim.NewDriver(anim.Config{Interval: opts.Layout.Step, Logger: logger}, func() { v.Tick() })
	if v.metrics != nil {
		v.metrics.SetDriverState(false, v.driver.Interval())
	}
	return v, nil
}

// RunID identifies this view in logs and exports.
func (v *View) RunID() string {
	return v.runID
}

// Publish hands snap to the view. The caller must not mutate snap afterwards.
func (v *View) Publish(snap *netmodel.Snapshot) {
	v.mu.Lock()
	v.current = snap
	v.mu.Unlock()

	v.publishMu.Lock()
	v.publishedAt = time.Now()
	v.publishMu.Unlock()

	if v.metrics != nil && snap != nil {
		v.metrics.RecordSnapshot(snap.Generation)
	}
}

// Connect makes src the snapshot source polled by every tick. A nil src
// disconnects; the last published snapshot then stays current.
func (v *View) Connect(src Source) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.source = src
}

// Sync reconciles the scene against snap immediately and makes snap current.
// Flushing and layout wait for the next tick.
func (v *View) Sync(snap *netmodel.Snapshot) scene.SyncStats {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = snap
	return v.scene.Sync(snap)
}

// Tick runs sync, flush, layout and repaint once.
func (v *View) Tick() TickReport {
	v.mu.Lock()
	src := v.source
	v.mu.Unlock()

	if src != nil {
		if snap := src.Snapshot(); snap != nil {
			v.Publish(snap)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.tick++
	op := logging.StartTimer(v.logger, "tick", logging.Tick(v.tick))

	report := TickReport{Tick: v.tick}
	if v.current != nil {
		report.Generation = v.current.Generation
	}
	report.Sync = v.scene.Sync(v.current)
	report.Flush = v.scene.Flush(v.substrate)
	report.Extent = v.engine.Step(v.scene)
	report.Layout = v.engine.LastStats()

	if vp, ok := v.substrate.(scene.Viewport); ok {
		vp.SetVisibleRect(report.Extent.Box())
	}
	v.substrate.RequestRepaint()

	report.Duration = op.End()
	if report.Generation != v.last.Generation {
		v.logger.Info("generation displayed",
			logging.Generation(report.Generation),
			logging.Int("nodes_created", report.Sync.NodesCreated),
			logging.Int("links_created", report.Sync.LinksCreated),
			logging.Int("nodes_retired", report.Sync.NodesRetired),
			logging.Int("links_retired", report.Sync.LinksRetired),
		)
	}
	v.last = report
	v.record(report)
	return report
}

func (v *View) record(r TickReport) {
	if v.metrics == nil {
		return
	}
	nodes, links := v.scene.Counts()
	size := r.Extent.Size()
	v.metrics.RecordTick(metrics.TickSample{
		Duration:        r.Duration,
		Nodes:           nodes,
		Links:           links,
		NodesCreated:    r.Sync.NodesCreated,
		LinksCreated:    r.Sync.LinksCreated,
		NodesRetired:    r.Sync.NodesRetired,
		LinksRetired:    r.Sync.LinksRetired,
		Dropped:         r.Flush.Dropped,
		Dangling:        r.Sync.Dangling,
		ExtentWidth:     size.X,
		ExtentHeight:    size.Y,
		MaxDisplacement: r.Layout.MaxDisplacement,
	})
}

// Read calls fn with the scene while holding the view lock. fn must not
// retain the scene or call back into the view.
func (v *View) Read(fn func(s *scene.Scene)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.scene)
}

// ReadWithExtent is Read with the extent of the latest tick.
func (v *View) ReadWithExtent(fn func(s *scene.Scene, ext layout.Extent)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.scene, v.last.Extent)
}

// Current returns the snapshot the next tick will display.
func (v *View) Current() *netmodel.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// LastReport returns the report of the most recent tick.
func (v *View) LastReport() TickReport {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// LastPublish returns when a snapshot was last handed over and its generation.
func (v *View) LastPublish() (time.Time, uint64) {
	v.publishMu.Lock()
	at := v.publishedAt
	v.publishMu.Unlock()

	if snap := v.Current(); snap != nil {
		return at, snap.Generation
	}
	return at, 0
}

// Start begins periodic ticking. It is idempotent.
func (v *View) Start() {
	if v.driver.Start() && v.metrics != nil {
		v.metrics.SetDriverState(true, v.driver.Interval())
	}
}

// Stop halts periodic ticking and waits for a tick in progress. It is
// idempotent.
func (v *View) Stop() {
	if v.driver.Stop() && v.metrics != nil {
		v.metrics.SetDriverState(false, v.driver.Interval())
	}
}

// Running reports whether the view is ticking.
func (v *View) Running() bool {
	return v.driver.Running()
}

// Interval returns the tick period.
func (v *View) Interval() time.Duration {
	return v.driver.Interval()
}

// LastTick returns when the driver last fired, or the zero time.
func (v *View) LastTick() time.Time {
	return v.driver.LastFire()
}

// Close stops the view and releases layout workers.
func (v *View) Close() {
	v.Stop()
	v.engine.Close()
}
