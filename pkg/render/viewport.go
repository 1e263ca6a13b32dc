package render

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Transform maps world coordinates to device coordinates.
type Transform struct {
	Scale  r2.Vec
	Offset r2.Vec
}

// Apply maps p to device space.
func (t Transform) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{X: p.X*t.Scale.X + t.Offset.X, Y: p.Y*t.Scale.Y + t.Offset.Y}
}

// Length maps a world distance along X to device units.
func (t Transform) Length(d float64) float64 {
	return d * t.Scale.X
}

// Fit maps rect into a width×height device area keeping the aspect ratio and
// centring the slack. aspect is the height of one device unit relative to
// its width; terminal cells are about 2, pixels are 1.
func Fit(rect r2.Box, width, height int, aspect float64) Transform {
	if aspect <= 0 {
		aspect = 1
	}
	w := rect.Max.X - rect.Min.X
	h := rect.Max.Y - rect.Min.Y
	if w <= 0 || h <= 0 || width <= 0 || height <= 0 {
		return Transform{Scale: r2.Vec{X: 1, Y: 1 / aspect}}
	}

	sx := float64(width) / w
	sy := float64(height) * aspect / h
	s := min(sx, sy)

	scale := r2.Vec{X: s, Y: s / aspect}
	usedW := w * scale.X
	usedH := h * scale.Y
	return Transform{
		Scale: scale,
		Offset: r2.Vec{
			X: (float64(width)-usedW)/2 - rect.Min.X*scale.X,
			Y: (float64(height)-usedH)/2 - rect.Min.Y*scale.Y,
		},
	}
}
