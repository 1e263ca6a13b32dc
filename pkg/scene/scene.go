package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

// Placement chooses the initial position of a node created by Sync.
// population is the node count including the new node.
type Placement interface {
	Place(id netmodel.NodeID, population int) r2.Vec
}

// PlacementFunc adapts a function to Placement.
type PlacementFunc func(id netmodel.NodeID, population int) r2.Vec

// Place calls f.
func (f PlacementFunc) Place(id netmodel.NodeID, population int) r2.Vec {
	return f(id, population)
}

// SpiralPlacement spreads new nodes along a golden-angle spiral whose radius
// grows with the square root of the population, so spawns never pile up at
// the origin.
func SpiralPlacement(spacing float64) Placement {
	golden := math.Pi * (3 - math.Sqrt(5))
	return PlacementFunc(func(_ netmodel.NodeID, population int) r2.Vec {
		r := spacing * math.Sqrt(float64(population))
		a := golden * float64(population)
		return r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
	})
}

// Options configures a Scene.
type Options struct {
	Placement  Placement
	NodeRadius float64
	Logger     logging.Logger
}

// Scene owns every visual node and link.
type Scene struct {
	Nodes *Arena[netmodel.NodeID, VisualNode]
	Links *Arena[netmodel.LinkID, VisualLink]

	placement  Placement
	nodeRadius float64
	logger     logging.Logger
}

// New creates an empty scene.
func New(opts Options) *Scene {
	if opts.NodeRadius <= 0 {
		opts.NodeRadius = DefaultNodeRadius
	}
	if opts.Placement == nil {
		opts.Placement = SpiralPlacement(opts.NodeRadius)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Scene{
		Nodes:      NewArena[netmodel.NodeID, VisualNode](),
		Links:      NewArena[netmodel.LinkID, VisualLink](),
		placement:  opts.Placement,
		nodeRadius: opts.NodeRadius,
		logger:     opts.Logger.With(logging.Component("scene")),
	}
}

// Endpoints resolves the two nodes of a link. ok is false if either handle is
// stale.
func (s *Scene) Endpoints(l *VisualLink) (src, dst *VisualNode, ok bool) {
	src, okSrc := s.Nodes.Get(l.Src)
	dst, okDst := s.Nodes.Get(l.Dst)
	return src, dst, okSrc && okDst
}

// Counts returns the number of stored nodes and links, pending ones included.
func (s *Scene) Counts() (nodes, links int) {
	return s.Nodes.Len(), s.Links.Len()
}
