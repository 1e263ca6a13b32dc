package render

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// LinkWidth is the stroke width of links in world units.
const LinkWidth = 0.25

// LinkSegment returns the part of the src→dst line outside both node discs.
// ok is false when the discs touch or overlap, in which case nothing is drawn.
func LinkSegment(src, dst *scene.VisualNode) (a, b r2.Vec, ok bool) {
	r := r2.Sub(dst.Pos, src.Pos)
	d := r2.Norm(r)
	if d <= src.Radius+dst.Radius {
		return r2.Vec{}, r2.Vec{}, false
	}
	u := r2.Scale(1/d, r)
	return r2.Add(src.Pos, r2.Scale(src.Radius, u)), r2.Sub(dst.Pos, r2.Scale(dst.Radius, u)), true
}

// LoopCircle returns the circle drawn for a self-loop on n: tangent to the
// top of the node and slightly smaller than it.
func LoopCircle(n *scene.VisualNode) (center r2.Vec, radius float64) {
	radius = 0.6 * n.Radius
	return r2.Vec{X: n.Pos.X, Y: n.Pos.Y - n.Radius - radius}, radius
}

// BidirectionalOffset shifts a bidirectional link sideways so the two
// directions are drawn as parallel strokes.
func BidirectionalOffset(a, b r2.Vec, by float64) (r2.Vec, r2.Vec) {
	d := r2.Sub(b, a)
	n := r2.Norm(d)
	if n == 0 {
		return a, b
	}
	normal := r2.Vec{X: -d.Y / n * by, Y: d.X / n * by}
	return r2.Add(a, normal), r2.Add(b, normal)
}
