// Package layout relaxes scene node positions with a force-directed model.
//
// Each Step accumulates pairwise repulsion and per-link Hookean attraction
// into node velocities, integrates with explicit Euler, clears the
// velocities and returns the padded bounding extent of the graph.
package layout

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/parallel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// minSeparation bounds the distance used for repulsion so coincident nodes
// get a large but finite push.
const minSeparation = 1e-2

// Config configures an Engine.
type Config struct {
	// Step is the integration interval, normally the animation tick.
	Step time.Duration

	Repulsion  float64
	Attraction float64
	// WeightedAttraction scales each link's pull by |weight|.
	WeightedAttraction bool
	Falloff            Falloff

	// Margin pads the extent about its centre; must exceed 1.
	Margin float64
	// DefaultExtent is the half-size of the extent for empty or single-node graphs.
	DefaultExtent float64
	// MaxStep caps per-tick displacement. Zero disables the cap.
	MaxStep float64

	// ParallelThreshold is the live node count from which repulsion is
	// split across Workers goroutines. Zero disables the parallel path.
	ParallelThreshold int
	Workers           int
}

// DefaultConfig returns the standard tuning: 40ms steps, repulsion 100,
// attraction 1 and inverse falloff.
func DefaultConfig() Config {
	return Config{
		Step:              40 * time.Millisecond,
		Repulsion:         100,
		Attraction:        1,
		Falloff:           Inverse{},
		Margin:            1.2,
		DefaultExtent:     50,
		MaxStep:           25,
		ParallelThreshold: 128,
		Workers:           4,
	}
}

// Validate checks the numeric ranges of c.
func (c Config) Validate() error {
	switch {
	case c.Step <= 0:
		return fmt.Errorf("layout step must be positive, got %v", c.Step)
	case c.Repulsion < 0 || c.Attraction < 0:
		return fmt.Errorf("layout forces must be non-negative")
	case c.Margin <= 1:
		return fmt.Errorf("layout margin must exceed 1, got %v", c.Margin)
	case c.DefaultExtent <= 0:
		return fmt.Errorf("layout default extent must be positive, got %v", c.DefaultExtent)
	case c.MaxStep < 0:
		return fmt.Errorf("layout max step must be non-negative, got %v", c.MaxStep)
	}
	return nil
}

// Stats describes the last Step.
type Stats struct {
	Nodes    int
	Links    int
	Parallel bool
	// MaxDisplacement is the largest distance any node moved.
	MaxDisplacement float64
	Extent          Extent
}

// Engine runs layout steps over a scene. It keeps no per-node state and is
// not safe for concurrent Steps.
type Engine struct {
	cfg    Config
	dt     float64
	pool   *parallel.WorkerPool
	logger logging.Logger

	live   []*scene.VisualNode
	forces []r2.Vec
	last   Stats
}

// NewEngine creates an engine. A nil Falloff selects Inverse.
func NewEngine(cfg Config, logger logging.Logger) (*Engine, error) {
	if cfg.Falloff == nil {
		cfg.Falloff = Inverse{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	e := &Engine{
		cfg:    cfg,
		dt:     cfg.Step.Seconds(),
		logger: logger.With(logging.Component("layout")),
	}
	if cfg.ParallelThreshold > 0 && cfg.Workers > 1 {
		pool, err := parallel.NewWorkerPool(cfg.Workers, e.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start layout workers: %w", err)
		}
		e.pool = pool
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// LastStats returns the statistics of the most recent Step.
func (e *Engine) LastStats() Stats {
	return e.last
}

// Close releases the worker pool, if any.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Step applies one tick of forces to the live nodes of s and returns the
// padded extent. It never fails; degenerate graphs get the default extent.
func (e *Engine) Step(s *scene.Scene) Extent {
	e.live = e.live[:0]
	s.Nodes.ForEach(func(_ netmodel.NodeID, _ scene.Handle, n *scene.VisualNode) bool {
		if !n.PendingRemove {
			e.live = append(e.live, n)
		}
		return true
	})

	stats := Stats{Nodes: len(e.live)}
	stats.Parallel = e.repulse()
	stats.Links = e.attract(s)
	stats.MaxDisplacement = e.integrate()

	var b bounds
	for _, n := range e.live {
		b.add(n.Pos, n.Radius)
	}
	stats.Extent = b.extent(e.cfg.Margin, e.cfg.DefaultExtent)
	e.last = stats

	e.logger.Debug("layout step",
		logging.Count(stats.Nodes),
		logging.Int("links", stats.Links),
		logging.Float64("max_displacement", stats.MaxDisplacement),
	)
	return stats.Extent
}

// repulse adds pairwise repulsion to every live node's velocity. Each node
// sums its own row in index order, so serial and parallel runs agree bit
// for bit. It reports whether the parallel path was taken.
func (e *Engine) repulse() bool {
	n := len(e.live)
	if n < 2 || e.cfg.Repulsion == 0 {
		return false
	}
	if cap(e.forces) < n {
		e.forces = make([]r2.Vec, n)
	}
	e.forces = e.forces[:n]

	rows := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			e.forces[i] = e.repulsionOn(i)
		}
	}

	usePool := e.pool != nil && n >= e.cfg.ParallelThreshold
	if usePool {
		e.pool.Range(n, rows)
	} else {
		rows(0, n)
	}

	for i, f := range e.forces {
		e.live[i].Vel = r2.Add(e.live[i].Vel, f)
	}
	return usePool
}

func (e *Engine) repulsionOn(i int) r2.Vec {
	var f r2.Vec
	p := e.live[i].Pos
	for j, other := range e.live {
		if j == i {
			continue
		}
		dir, d := direction(r2.Sub(p, other.Pos), i, j)
		d = max(d, minSeparation)
		f = r2.Add(f, r2.Scale(e.cfg.Repulsion*e.cfg.Falloff.Scale(d), dir))
	}
	return f
}

// attract pulls the endpoints of every live non-loop link together and
// returns the number of links that contributed.
func (e *Engine) attract(s *scene.Scene) int {
	if e.cfg.Attraction == 0 {
		return 0
	}
	count := 0
	s.Links.ForEach(func(id netmodel.LinkID, _ scene.Handle, l *scene.VisualLink) bool {
		if l.PendingRemove || id.IsLoop() {
			return true
		}
		src, dst, ok := s.Endpoints(l)
		if !ok {
			return true
		}
		k := e.cfg.Attraction
		if e.cfg.WeightedAttraction {
			k *= math.Abs(l.Weight)
		}
		pull := r2.Scale(k, r2.Sub(dst.Pos, src.Pos))
		src.Vel = r2.Add(src.Vel, pull)
		dst.Vel = r2.Sub(dst.Vel, pull)
		count++
		return true
	})
	return count
}

// integrate moves every live node by vel*dt, clamped to MaxStep, and resets
// the velocity. Non-finite steps are discarded.
func (e *Engine) integrate() float64 {
	var maxDisp float64
	for _, n := range e.live {
		step := r2.Scale(e.dt, n.Vel)
		n.Vel = r2.Vec{}

		d := r2.Norm(step)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		if e.cfg.MaxStep > 0 && d > e.cfg.MaxStep {
			step = r2.Scale(e.cfg.MaxStep/d, step)
			d = e.cfg.MaxStep
		}
		n.Pos = r2.Add(n.Pos, step)
		maxDisp = max(maxDisp, d)
	}
	return maxDisp
}

// goldenAngle spreads successive fallback directions evenly around the circle.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// direction returns the unit vector of v and its length. A zero vector, the
// separation of two coincident nodes i and j, maps to an angle derived from
// the unordered pair, negated for the higher index so the two are pushed
// apart. Distinct pairs get distinct angles, so a pile of coincident nodes
// spreads in two dimensions rather than along one axis.
func direction(v r2.Vec, i, j int) (r2.Vec, float64) {
	d := r2.Norm(v)
	if d != 0 {
		return r2.Scale(1/d, v), d
	}
	lo, hi := min(i, j), max(i, j)
	a := goldenAngle * float64(hi*(hi-1)/2+lo)
	u := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
	if i > j {
		u = r2.Scale(-1, u)
	}
	return u, 0
}
