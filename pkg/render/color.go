package render

import (
	"fmt"
	"image/color"
	"math"
)

// Background is the canvas fill colour.
var Background = color.RGBA{R: 0xCD, G: 0xC0, B: 0xB4, A: 0xFF}

// SignColor maps a bias or weight to a colour: red for positive values, blue
// for negative ones, with intensity 1-exp(-|v|). Zero is black.
func SignColor(v float64) color.RGBA {
	c := color.RGBA{A: 0xFF}
	if math.IsNaN(v) {
		return c
	}
	level := uint8(math.Round(255 * (1 - math.Exp(-math.Abs(v)))))
	switch {
	case v > 0:
		c.R = level
	case v < 0:
		c.B = level
	}
	return c
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
