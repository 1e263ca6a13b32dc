package scene

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

// Substrate is the rendering layer the scene materialises entities into.
type Substrate interface {
	Add(ref Ref)
	Remove(ref Ref)
	RequestRepaint()
}

// Viewport is implemented by substrates that can frame a world-space region.
type Viewport interface {
	ViewportSize() (width, height int)
	SetVisibleRect(rect r2.Box)
}

// Discard is a substrate that ignores everything.
type Discard struct{}

func (Discard) Add(Ref)         {}
func (Discard) Remove(Ref)      {}
func (Discard) RequestRepaint() {}

// FlushStats summarises one Flush.
type FlushStats struct {
	NodesAdded   int
	LinksAdded   int
	NodesRemoved int
	LinksRemoved int
	// Dropped counts entities retired before they were ever added.
	Dropped int
}

// Flush applies pending changes to sub. Retired links then nodes are removed
// from sub, but only if sub was told about them, and erased from the scene.
// Then pending nodes and links are added. An entity created and retired
// between two flushes never reaches sub.
func (s *Scene) Flush(sub Substrate) FlushStats {
	var stats FlushStats

	for _, id := range s.Links.Keys() {
		l, _ := s.Links.Find(id)
		if !l.PendingRemove {
			continue
		}
		if l.PendingAdd {
			stats.Dropped++
		} else {
			sub.Remove(LinkRef(id))
			stats.LinksRemoved++
		}
		if !id.IsLoop() {
			if rev, ok := s.Links.Find(id.Reverse()); ok {
				rev.Bidirectional = false
			}
		}
		s.Links.Erase(id)
	}

	for _, id := range s.Nodes.Keys() {
		n, _ := s.Nodes.Find(id)
		if !n.PendingRemove {
			continue
		}
		if n.PendingAdd {
			stats.Dropped++
		} else {
			sub.Remove(NodeRef(id))
			stats.NodesRemoved++
		}
		s.Nodes.Erase(id)
	}

	s.Nodes.ForEach(func(id netmodel.NodeID, _ Handle, n *VisualNode) bool {
		if n.PendingAdd {
			sub.Add(NodeRef(id))
			n.PendingAdd = false
			stats.NodesAdded++
		}
		return true
	})
	s.Links.ForEach(func(id netmodel.LinkID, _ Handle, l *VisualLink) bool {
		if l.PendingAdd {
			sub.Add(LinkRef(id))
			l.PendingAdd = false
			stats.LinksAdded++
		}
		return true
	})

	return stats
}
