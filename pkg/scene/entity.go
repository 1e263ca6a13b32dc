// Package scene keeps the visual entities that mirror a network snapshot.
//
// Entities live in generational arenas keyed by node and link id. Sync
// reconciles a snapshot against them in place, and Flush hands pending
// additions and removals to the rendering substrate exactly once.
package scene

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

// DefaultNodeRadius is the radius given to freshly created nodes.
const DefaultNodeRadius = 1.0

// VisualNode is the on-screen state of one neuron. Pos and Vel survive
// across ticks; Bias is overwritten by every sync.
type VisualNode struct {
	Pos    r2.Vec
	Vel    r2.Vec
	Radius float64
	Bias   float64

	PendingAdd    bool
	PendingRemove bool
}

// VisualLink is the on-screen state of one connection. Src and Dst are handles
// into the node arena.
type VisualLink struct {
	Src           Handle
	Dst           Handle
	Weight        float64
	Bidirectional bool

	PendingAdd    bool
	PendingRemove bool
}

// Kind distinguishes entity variants at the substrate boundary.
type Kind int

const (
	NodeKind Kind = iota
	LinkKind
)

func (k Kind) String() string {
	switch k {
	case NodeKind:
		return "node"
	case LinkKind:
		return "link"
	default:
		return "unknown"
	}
}

// Ref names an entity when talking to a substrate. Only the field matching
// Kind is meaningful.
type Ref struct {
	Kind Kind
	Node netmodel.NodeID
	Link netmodel.LinkID
}

// NodeRef returns a reference to a node entity.
func NodeRef(id netmodel.NodeID) Ref {
	return Ref{Kind: NodeKind, Node: id}
}

// LinkRef returns a reference to a link entity.
func LinkRef(id netmodel.LinkID) Ref {
	return Ref{Kind: LinkKind, Link: id}
}

func (r Ref) String() string {
	if r.Kind == LinkKind {
		return fmt.Sprintf("link %s", r.Link)
	}
	return fmt.Sprintf("node %d", r.Node)
}
