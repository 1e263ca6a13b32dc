// Package render draws a scene onto rendering surfaces: a terminal cell
// canvas and SVG. Each entity kind has its own Renderable; the scene's data
// structs carry no drawing code.
package render

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// Surface is a drawing target in world coordinates.
type Surface interface {
	Circle(center r2.Vec, radius float64, fill color.RGBA)
	Ring(center r2.Vec, radius, width float64, stroke color.RGBA)
	Line(a, b r2.Vec, width float64, stroke color.RGBA)
}

// Renderable draws one entity.
type Renderable interface {
	Draw(s Surface)
}

// NodeSprite draws a node as a filled disc coloured by bias.
type NodeSprite struct {
	Pos    r2.Vec
	Radius float64
	Bias   float64
}

func (n NodeSprite) Draw(s Surface) {
	s.Circle(n.Pos, n.Radius, SignColor(n.Bias))
}

// LinkSprite draws a link as a segment trimmed to the node boundaries.
type LinkSprite struct {
	A, B   r2.Vec
	Weight float64
}

func (l LinkSprite) Draw(s Surface) {
	s.Line(l.A, l.B, LinkWidth, SignColor(l.Weight))
}

// LoopSprite draws a self-loop as a ring offset from its node.
type LoopSprite struct {
	Center r2.Vec
	Radius float64
	Weight float64
}

func (l LoopSprite) Draw(s Surface) {
	s.Ring(l.Center, l.Radius, LinkWidth, SignColor(l.Weight))
}

// Sprites builds the renderables of every live entity: links first so nodes
// paint over their ends. Overlapping endpoints yield no link sprite.
func Sprites(sc *scene.Scene) []Renderable {
	var links, nodes []Renderable

	sc.Links.ForEach(func(id netmodel.LinkID, _ scene.Handle, l *scene.VisualLink) bool {
		if l.PendingRemove {
			return true
		}
		src, dst, ok := sc.Endpoints(l)
		if !ok {
			return true
		}
		if id.IsLoop() {
			c, r := LoopCircle(src)
			links = append(links, LoopSprite{Center: c, Radius: r, Weight: l.Weight})
			return true
		}
		a, b, ok := LinkSegment(src, dst)
		if !ok {
			return true
		}
		if l.Bidirectional {
			a, b = BidirectionalOffset(a, b, LinkWidth)
		}
		links = append(links, LinkSprite{A: a, B: b, Weight: l.Weight})
		return true
	})

	sc.Nodes.ForEach(func(_ netmodel.NodeID, _ scene.Handle, n *scene.VisualNode) bool {
		if !n.PendingRemove {
			nodes = append(nodes, NodeSprite{Pos: n.Pos, Radius: n.Radius, Bias: n.Bias})
		}
		return true
	})

	return append(links, nodes...)
}

// Draw paints every renderable onto s in order.
func Draw(s Surface, items []Renderable) {
	for _, it := range items {
		it.Draw(s)
	}
}
