package layout

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Extent is the axis-aligned world-space rectangle enclosing the graph.
type Extent struct {
	Min r2.Vec
	Max r2.Vec
}

// Box converts e to a gonum box.
func (e Extent) Box() r2.Box {
	return r2.Box{Min: e.Min, Max: e.Max}
}

// Center returns the midpoint of e.
func (e Extent) Center() r2.Vec {
	return r2.Scale(0.5, r2.Add(e.Min, e.Max))
}

// Size returns the width and height of e as a vector.
func (e Extent) Size() r2.Vec {
	return r2.Sub(e.Max, e.Min)
}

// Contains reports whether p lies inside e, borders included.
func (e Extent) Contains(p r2.Vec) bool {
	return p.X >= e.Min.X && p.X <= e.Max.X && p.Y >= e.Min.Y && p.Y <= e.Max.Y
}

func (e Extent) String() string {
	return fmt.Sprintf("[(%.2f, %.2f) (%.2f, %.2f)]", e.Min.X, e.Min.Y, e.Max.X, e.Max.Y)
}

// centered builds an extent from a centre and half-size.
func centered(c, half r2.Vec) Extent {
	return Extent{Min: r2.Sub(c, half), Max: r2.Add(c, half)}
}

// bounds accumulates the raw rectangle of node discs.
type bounds struct {
	n        int
	min, max r2.Vec
}

func (b *bounds) add(p r2.Vec, radius float64) {
	lo := r2.Vec{X: p.X - radius, Y: p.Y - radius}
	hi := r2.Vec{X: p.X + radius, Y: p.Y + radius}
	if b.n == 0 {
		b.min, b.max = lo, hi
	} else {
		b.min = r2.Vec{X: min(b.min.X, lo.X), Y: min(b.min.Y, lo.Y)}
		b.max = r2.Vec{X: max(b.max.X, hi.X), Y: max(b.max.Y, hi.Y)}
	}
	b.n++
}

// extent pads the accumulated rectangle by margin about its centre. Fewer
// than two nodes yield a square of half-size def, centred on the single node
// if there is one and grown to cover it.
func (b *bounds) extent(margin, def float64) Extent {
	switch b.n {
	case 0:
		return centered(r2.Vec{}, r2.Vec{X: def, Y: def})
	case 1:
		c := r2.Scale(0.5, r2.Add(b.min, b.max))
		half := r2.Scale(0.5*margin, r2.Sub(b.max, b.min))
		return centered(c, r2.Vec{X: max(half.X, def), Y: max(half.Y, def)})
	}

	c := r2.Scale(0.5, r2.Add(b.min, b.max))
	half := r2.Scale(0.5*margin, r2.Sub(b.max, b.min))
	if half.X <= 0 {
		half.X = def
	}
	if half.Y <= 0 {
		half.Y = def
	}
	return centered(c, half)
}
