package layout

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// fixedPlacement spawns node i at (i, 0).
var fixedPlacement = scene.PlacementFunc(func(id netmodel.NodeID, _ int) r2.Vec {
	return r2.Vec{X: float64(id)}
})

func newScene(t *testing.T, nodes []int, links ...[2]int) *scene.Scene {
	t.Helper()
	s := scene.New(scene.Options{Placement: fixedPlacement})
	snap := netmodel.NewSnapshot()
	for _, n := range nodes {
		snap.Nodes[netmodel.NodeID(n)] = netmodel.NodeSnapshot{}
	}
	for _, l := range links {
		snap.Links[netmodel.Link(netmodel.NodeID(l[0]), netmodel.NodeID(l[1]))] = netmodel.LinkSnapshot{Weight: 1}
	}
	s.Sync(snap)
	s.Flush(scene.Discard{})
	return s
}

func newEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func node(t *testing.T, s *scene.Scene, id int) *scene.VisualNode {
	t.Helper()
	n, ok := s.Nodes.Find(netmodel.NodeID(id))
	require.True(t, ok)
	return n
}

func TestStep_LinkedPairConvergesToEquilibrium(t *testing.T) {
	s := newScene(t, []int{0, 1}, [2]int{0, 1})
	e := newEngine(t, nil)

	for i := 0; i < 500; i++ {
		e.Step(s)
	}

	d := r2.Norm(r2.Sub(node(t, s, 0).Pos, node(t, s, 1).Pos))
	assert.InDelta(t, math.Sqrt(100.0/1.0), d, 1e-6)
	assert.Less(t, e.LastStats().MaxDisplacement, 1e-6)
}

func TestStep_EquilibriumScalesWithForces(t *testing.T) {
	s := newScene(t, []int{0, 1}, [2]int{0, 1})
	e := newEngine(t, func(c *Config) {
		c.Repulsion = 36
		c.Attraction = 4
	})

	for i := 0; i < 500; i++ {
		e.Step(s)
	}

	d := r2.Norm(r2.Sub(node(t, s, 0).Pos, node(t, s, 1).Pos))
	assert.InDelta(t, 3.0, d, 1e-6)
}

func TestStep_UnlinkedNodesRepel(t *testing.T) {
	s := newScene(t, []int{0, 1})
	e := newEngine(t, nil)

	e.Step(s)
	d1 := r2.Norm(r2.Sub(node(t, s, 0).Pos, node(t, s, 1).Pos))
	e.Step(s)
	d2 := r2.Norm(r2.Sub(node(t, s, 0).Pos, node(t, s, 1).Pos))

	assert.Greater(t, d1, 1.0)
	assert.Greater(t, d2, d1)
}

func TestStep_ResetsVelocity(t *testing.T) {
	s := newScene(t, []int{0, 1, 2}, [2]int{0, 1}, [2]int{1, 2})
	e := newEngine(t, nil)
	e.Step(s)

	s.Nodes.ForEach(func(_ netmodel.NodeID, _ scene.Handle, n *scene.VisualNode) bool {
		assert.Equal(t, r2.Vec{}, n.Vel)
		return true
	})
}

func TestStep_SelfLoopExertsNoForce(t *testing.T) {
	s := newScene(t, []int{3}, [2]int{3, 3})
	e := newEngine(t, nil)

	before := node(t, s, 3).Pos
	e.Step(s)
	assert.Equal(t, before, node(t, s, 3).Pos)
	assert.Zero(t, e.LastStats().Links)
}

func TestStep_CoincidentNodesSeparate(t *testing.T) {
	s := scene.New(scene.Options{Placement: scene.PlacementFunc(func(netmodel.NodeID, int) r2.Vec {
		return r2.Vec{X: 5, Y: 5}
	})})
	snap := netmodel.NewSnapshot()
	snap.Nodes[1] = netmodel.NodeSnapshot{}
	snap.Nodes[2] = netmodel.NodeSnapshot{}
	s.Sync(snap)
	s.Flush(scene.Discard{})

	e := newEngine(t, nil)
	ext := e.Step(s)

	a, b := node(t, s, 1).Pos, node(t, s, 2).Pos
	assert.False(t, math.IsNaN(a.X) || math.IsNaN(b.X))
	assert.Greater(t, r2.Norm(r2.Sub(a, b)), 0.0)
	assert.LessOrEqual(t, e.LastStats().MaxDisplacement, e.Config().MaxStep)
	assert.True(t, ext.Contains(a))
	assert.True(t, ext.Contains(b))
}

func TestStep_CoincidentPileSpreadsInTwoDimensions(t *testing.T) {
	const n = 40
	s := scene.New(scene.Options{Placement: scene.PlacementFunc(func(netmodel.NodeID, int) r2.Vec {
		return r2.Vec{}
	})})
	snap := netmodel.NewSnapshot()
	for i := 0; i < n; i++ {
		snap.Nodes[netmodel.NodeID(i)] = netmodel.NodeSnapshot{}
		snap.Links[netmodel.Link(netmodel.NodeID(i), netmodel.NodeID((i+1)%n))] = netmodel.LinkSnapshot{Weight: 1}
	}
	s.Sync(snap)
	s.Flush(scene.Discard{})

	e := newEngine(t, func(c *Config) {
		c.Falloff = InverseSquare{}
		c.MaxStep = 0
	})
	for i := 0; i < 20; i++ {
		e.Step(s)
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		p := node(t, s, i).Pos
		require.False(t, math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0))
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	assert.Greater(t, maxY-minY, 1e-3)
}

func TestDirection_ZeroVectorFallback(t *testing.T) {
	u, d := direction(r2.Vec{}, 2, 5)
	v, _ := direction(r2.Vec{}, 5, 2)
	assert.Zero(t, d)
	assert.InDelta(t, 1, r2.Norm(u), 1e-12)
	assert.InDelta(t, -u.X, v.X, 1e-12)
	assert.InDelta(t, -u.Y, v.Y, 1e-12)

	w, _ := direction(r2.Vec{}, 1, 5)
	assert.NotEqual(t, u, w)

	x, d := direction(r2.Vec{X: 3, Y: 4}, 0, 1)
	assert.Equal(t, 5.0, d)
	assert.InDelta(t, 0.6, x.X, 1e-12)
	assert.InDelta(t, 0.8, x.Y, 1e-12)
}

func TestStep_WeightedAttraction(t *testing.T) {
	run := func(weighted bool) float64 {
		s := scene.New(scene.Options{Placement: fixedPlacement})
		snap := netmodel.NewSnapshot()
		snap.Nodes[0] = netmodel.NodeSnapshot{}
		snap.Nodes[20] = netmodel.NodeSnapshot{}
		snap.Links[netmodel.Link(0, 20)] = netmodel.LinkSnapshot{Weight: 0.25}
		s.Sync(snap)
		s.Flush(scene.Discard{})

		e := newEngine(t, func(c *Config) { c.WeightedAttraction = weighted })
		for i := 0; i < 500; i++ {
			e.Step(s)
		}
		return r2.Norm(r2.Sub(node(t, s, 0).Pos, node(t, s, 20).Pos))
	}

	assert.InDelta(t, 10.0, run(false), 1e-6)
	assert.InDelta(t, 20.0, run(true), 1e-6)
}

func TestStep_ParallelMatchesSerial(t *testing.T) {
	ids := make([]int, 40)
	var links [][2]int
	for i := range ids {
		ids[i] = i
		if i > 0 {
			links = append(links, [2]int{i - 1, i})
		}
	}
	serialScene := newScene(t, ids, links...)
	parallelScene := newScene(t, ids, links...)

	serial := newEngine(t, func(c *Config) { c.ParallelThreshold = 0 })
	par := newEngine(t, func(c *Config) {
		c.ParallelThreshold = 10
		c.Workers = 4
	})

	for i := 0; i < 20; i++ {
		assert.Equal(t, serial.Step(serialScene), par.Step(parallelScene))
	}
	assert.False(t, serial.LastStats().Parallel)
	assert.True(t, par.LastStats().Parallel)

	for _, id := range ids {
		assert.Equal(t, node(t, serialScene, id).Pos, node(t, parallelScene, id).Pos)
	}
}

func TestStep_SkipsPendingRemove(t *testing.T) {
	s := newScene(t, []int{0, 1})
	gone := node(t, s, 1)
	gone.PendingRemove = true
	before := gone.Pos

	e := newEngine(t, nil)
	e.Step(s)

	assert.Equal(t, before, gone.Pos)
	assert.Equal(t, 1, e.LastStats().Nodes)
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero step", func(c *Config) { c.Step = 0 }},
		{"margin one", func(c *Config) { c.Margin = 1 }},
		{"negative repulsion", func(c *Config) { c.Repulsion = -1 }},
		{"zero default extent", func(c *Config) { c.DefaultExtent = 0 }},
		{"negative max step", func(c *Config) { c.MaxStep = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 40*time.Millisecond, cfg.Step)
	assert.Equal(t, 1.2, cfg.Margin)
	assert.NoError(t, cfg.Validate())
}
