package scene

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

// recorder is a substrate that remembers what it holds.
type recorder struct {
	live     map[Ref]bool
	adds     []Ref
	removes  []Ref
	repaints int
}

func newRecorder() *recorder {
	return &recorder{live: make(map[Ref]bool)}
}

func (r *recorder) Add(ref Ref) {
	r.adds = append(r.adds, ref)
	r.live[ref] = true
}

func (r *recorder) Remove(ref Ref) {
	r.removes = append(r.removes, ref)
	delete(r.live, ref)
}

func (r *recorder) RequestRepaint() { r.repaints++ }

func (r *recorder) reset() {
	r.adds, r.removes = nil, nil
}

func snapshot(nodes []netmodel.NodeID, links ...netmodel.LinkID) *netmodel.Snapshot {
	s := netmodel.NewSnapshot()
	for _, n := range nodes {
		s.Nodes[n] = netmodel.NodeSnapshot{Bias: float64(n) / 10}
	}
	for _, l := range links {
		s.Links[l] = netmodel.LinkSnapshot{Weight: 0.5}
	}
	return s
}

func ids(n ...int) []netmodel.NodeID {
	out := make([]netmodel.NodeID, len(n))
	for i, v := range n {
		out[i] = netmodel.NodeID(v)
	}
	return out
}

func lk(src, dst int) netmodel.LinkID {
	return netmodel.Link(netmodel.NodeID(src), netmodel.NodeID(dst))
}

func TestSync_CreatesAndFlushesOnce(t *testing.T) {
	s := New(Options{})
	rec := newRecorder()

	stats := s.Sync(snapshot(ids(1, 2, 3), lk(1, 2), lk(2, 3)))
	assert.Equal(t, SyncStats{NodesCreated: 3, LinksCreated: 2}, stats)

	fs := s.Flush(rec)
	assert.Equal(t, FlushStats{NodesAdded: 3, LinksAdded: 2}, fs)

	// Nodes are added before links.
	require.Len(t, rec.adds, 5)
	for _, ref := range rec.adds[:3] {
		assert.Equal(t, NodeKind, ref.Kind)
	}
	for _, ref := range rec.adds[3:] {
		assert.Equal(t, LinkKind, ref.Kind)
	}

	rec.reset()
	s.Sync(snapshot(ids(1, 2, 3), lk(1, 2), lk(2, 3)))
	fs = s.Flush(rec)
	assert.Equal(t, FlushStats{}, fs)
	assert.Empty(t, rec.adds)
	assert.Empty(t, rec.removes)
}

func TestSync_PreservesIdentityAndState(t *testing.T) {
	s := New(Options{})
	s.Sync(snapshot(ids(1, 2), lk(1, 2)))
	s.Flush(Discard{})

	n1, ok := s.Nodes.Find(1)
	require.True(t, ok)
	n1.Pos = r2.Vec{X: 42, Y: -3}
	n1.Vel = r2.Vec{X: 1, Y: 1}
	h1, _ := s.Nodes.Lookup(1)

	next := snapshot(ids(1, 2), lk(1, 2))
	next.Nodes[1] = netmodel.NodeSnapshot{Bias: -0.7}
	next.Links[lk(1, 2)] = netmodel.LinkSnapshot{Weight: 2.5}
	s.Sync(next)
	s.Flush(Discard{})

	again, ok := s.Nodes.Find(1)
	require.True(t, ok)
	assert.Same(t, n1, again)
	assert.Equal(t, r2.Vec{X: 42, Y: -3}, again.Pos)
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, again.Vel)
	assert.Equal(t, -0.7, again.Bias)

	h1b, _ := s.Nodes.Lookup(1)
	assert.Equal(t, h1, h1b)

	l, ok := s.Links.Find(lk(1, 2))
	require.True(t, ok)
	assert.Equal(t, 2.5, l.Weight)
}

func TestSync_RemovesMissingEntities(t *testing.T) {
	s := New(Options{})
	rec := newRecorder()
	s.Sync(snapshot(ids(1, 2, 3), lk(1, 2), lk(2, 3)))
	s.Flush(rec)
	rec.reset()

	stats := s.Sync(snapshot(ids(1, 2), lk(1, 2)))
	assert.Equal(t, 1, stats.NodesRetired)
	assert.Equal(t, 1, stats.LinksRetired)

	// Retired entities stay in the scene until flush.
	nodes, links := s.Counts()
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 2, links)

	fs := s.Flush(rec)
	assert.Equal(t, FlushStats{NodesRemoved: 1, LinksRemoved: 1}, fs)
	assert.Equal(t, []Ref{LinkRef(lk(2, 3)), NodeRef(3)}, rec.removes)

	nodes, links = s.Counts()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, links)
	assert.Len(t, rec.live, 3)
}

func TestSync_CreateThenDestroyNeverReachesSubstrate(t *testing.T) {
	s := New(Options{})
	rec := newRecorder()

	s.Sync(snapshot(ids(1, 2), lk(1, 2)))
	s.Sync(snapshot(nil))
	fs := s.Flush(rec)

	assert.Equal(t, 3, fs.Dropped)
	assert.Empty(t, rec.adds)
	assert.Empty(t, rec.removes)
	nodes, links := s.Counts()
	assert.Zero(t, nodes)
	assert.Zero(t, links)
}

func TestSync_NilSnapshotRetiresEverything(t *testing.T) {
	s := New(Options{})
	rec := newRecorder()
	s.Sync(snapshot(ids(1, 2), lk(1, 2)))
	s.Flush(rec)

	stats := s.Sync(nil)
	assert.Equal(t, 2, stats.NodesRetired)
	assert.Equal(t, 1, stats.LinksRetired)
	s.Flush(rec)
	assert.Empty(t, rec.live)
}

func TestSync_Bidirectional(t *testing.T) {
	s := New(Options{})
	s.Sync(snapshot(ids(1, 2), lk(1, 2)))
	s.Flush(Discard{})

	ab, _ := s.Links.Find(lk(1, 2))
	assert.False(t, ab.Bidirectional)

	s.Sync(snapshot(ids(1, 2), lk(1, 2), lk(2, 1)))
	s.Flush(Discard{})
	ba, _ := s.Links.Find(lk(2, 1))
	assert.True(t, ab.Bidirectional)
	assert.True(t, ba.Bidirectional)

	s.Sync(snapshot(ids(1, 2), lk(2, 1)))
	s.Flush(Discard{})
	assert.False(t, ba.Bidirectional)
	_, ok := s.Links.Find(lk(1, 2))
	assert.False(t, ok)
}

func TestSync_SelfLoopIsNotBidirectional(t *testing.T) {
	s := New(Options{})
	s.Sync(snapshot(ids(1), lk(1, 1)))
	s.Flush(Discard{})

	loop, ok := s.Links.Find(lk(1, 1))
	require.True(t, ok)
	assert.False(t, loop.Bidirectional)
	src, dst, ok := s.Endpoints(loop)
	require.True(t, ok)
	assert.Same(t, src, dst)
}

func TestSync_DanglingLinkIsSkipped(t *testing.T) {
	s := New(Options{})
	s.Sync(snapshot(ids(1, 2), lk(1, 2)))
	s.Flush(Discard{})

	// Node 2 is gone but a link still names it, and 1->9 names an unknown node.
	stats := s.Sync(snapshot(ids(1), lk(1, 2), lk(1, 9)))
	assert.Equal(t, 2, stats.Dangling)
	assert.Equal(t, 1, stats.LinksRetired)
	s.Flush(Discard{})

	_, ok := s.Links.Find(lk(1, 2))
	assert.False(t, ok)
	_, ok = s.Links.Find(lk(1, 9))
	assert.False(t, ok)
}

func TestSync_LinkEndpointsResolve(t *testing.T) {
	s := New(Options{})
	s.Sync(snapshot(ids(4, 8), lk(4, 8)))
	s.Flush(Discard{})

	l, _ := s.Links.Find(lk(4, 8))
	src, dst, ok := s.Endpoints(l)
	require.True(t, ok)
	n4, _ := s.Nodes.Find(4)
	n8, _ := s.Nodes.Find(8)
	assert.Same(t, n4, src)
	assert.Same(t, n8, dst)
}

func TestSync_PlacementUsesPopulation(t *testing.T) {
	var pops []int
	place := PlacementFunc(func(id netmodel.NodeID, population int) r2.Vec {
		pops = append(pops, population)
		return r2.Vec{X: float64(id)}
	})
	s := New(Options{Placement: place, NodeRadius: 2})
	s.Sync(snapshot(ids(1, 2, 3)))

	assert.Equal(t, []int{1, 2, 3}, pops)
	n, _ := s.Nodes.Find(3)
	assert.Equal(t, 3.0, n.Pos.X)
	assert.Equal(t, 2.0, n.Radius)
}

// TestSceneMirrorsSnapshots checks that after any sequence of sync and flush
// the scene and the substrate hold exactly the snapshot's entities.
func TestSceneMirrorsSnapshots(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	genSnapshot := gen.SliceOfN(12, gen.IntRange(0, 7)).Map(func(v []int) *netmodel.Snapshot {
		s := netmodel.NewSnapshot()
		for i := 0; i+1 < len(v); i += 2 {
			s.Nodes[netmodel.NodeID(v[i])] = netmodel.NodeSnapshot{}
		}
		for i := 0; i+1 < len(v); i++ {
			src, dst := netmodel.NodeID(v[i]), netmodel.NodeID(v[i+1])
			_, okS := s.Nodes[src]
			_, okD := s.Nodes[dst]
			if okS && okD {
				s.Links[netmodel.Link(src, dst)] = netmodel.LinkSnapshot{Weight: 1}
			}
		}
		return s
	})

	properties.Property("scene equals last snapshot after flush", prop.ForAll(
		func(snaps []*netmodel.Snapshot) bool {
			s := New(Options{})
			rec := newRecorder()
			for _, snap := range snaps {
				s.Sync(snap)
				s.Flush(rec)

				nodes, links := s.Counts()
				if nodes != len(snap.Nodes) || links != len(snap.Links) {
					return false
				}
				if len(rec.live) != len(snap.Nodes)+len(snap.Links) {
					return false
				}
				for id := range snap.Nodes {
					if !rec.live[NodeRef(id)] {
						return false
					}
				}
				for id := range snap.Links {
					l, ok := s.Links.Find(id)
					if !ok || !rec.live[LinkRef(id)] {
						return false
					}
					if _, _, ok := s.Endpoints(l); !ok {
						return false
					}
					_, hasRev := snap.Links[id.Reverse()]
					if l.Bidirectional != (hasRev && !id.IsLoop()) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(6, genSnapshot),
	))

	properties.TestingRun(t)
}
