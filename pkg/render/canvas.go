package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"
)

// TerminalAspect is the height of a terminal cell relative to its width.
const TerminalAspect = 2.0

// Cell is one character of a Canvas.
type Cell struct {
	Rune  rune
	Color color.RGBA
}

// Canvas is a character grid Surface for terminals.
type Canvas struct {
	width, height int
	cells         []Cell
	tf            Transform
}

// NewCanvas creates a blank width×height canvas showing the world region rect.
func NewCanvas(width, height int, rect r2.Box) *Canvas {
	width, height = max(width, 1), max(height, 1)
	c := &Canvas{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		tf:     Fit(rect, width, height, TerminalAspect),
	}
	for i := range c.cells {
		c.cells[i].Rune = ' '
	}
	return c
}

// Size returns the canvas dimensions in cells.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// At returns the cell at column x, row y.
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Cell{Rune: ' '}
	}
	return c.cells[y*c.width+x]
}

func (c *Canvas) set(x, y int, r rune, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y*c.width+x] = Cell{Rune: r, Color: col}
}

func (c *Canvas) cell(p r2.Vec) (int, int) {
	d := c.tf.Apply(p)
	return int(math.Floor(d.X)), int(math.Floor(d.Y))
}

// Circle fills every cell whose centre lies inside the disc. Discs smaller
// than a cell still mark the cell they fall in.
func (c *Canvas) Circle(center r2.Vec, radius float64, fill color.RGBA) {
	cx, cy := c.cell(center)
	rx := radius * c.tf.Scale.X
	ry := radius * c.tf.Scale.Y
	if rx < 1 || ry < 1 {
		c.set(cx, cy, '●', fill)
		return
	}

	d := c.tf.Apply(center)
	for y := int(math.Floor(d.Y - ry)); y <= int(math.Ceil(d.Y+ry)); y++ {
		for x := int(math.Floor(d.X - rx)); x <= int(math.Ceil(d.X+rx)); x++ {
			nx := (float64(x) + 0.5 - d.X) / rx
			ny := (float64(y) + 0.5 - d.Y) / ry
			if nx*nx+ny*ny <= 1 {
				c.set(x, y, '█', fill)
			}
		}
	}
}

// Ring marks the outline of a circle.
func (c *Canvas) Ring(center r2.Vec, radius, _ float64, stroke color.RGBA) {
	steps := max(8, int(2*math.Pi*radius*c.tf.Scale.X))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x, y := c.cell(r2.Vec{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)})
		c.set(x, y, '·', stroke)
	}
}

// Line rasterises a segment with Bresenham's algorithm, choosing the glyph
// from the segment's slope.
func (c *Canvas) Line(a, b r2.Vec, _ float64, stroke color.RGBA) {
	x1, y1 := c.cell(a)
	x2, y2 := c.cell(b)
	glyph := slopeGlyph(x2-x1, y2-y1)

	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		c.set(x1, y1, glyph, stroke)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func slopeGlyph(dx, dy int) rune {
	switch {
	case dx == 0 && dy == 0:
		return '·'
	case abs(dy)*2 <= abs(dx):
		return '─'
	case abs(dx)*2 <= abs(dy):
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// String returns the canvas as plain text, one line per row.
func (c *Canvas) String() string {
	var sb strings.Builder
	sb.Grow((c.width + 1) * c.height)
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			sb.WriteRune(c.cells[y*c.width+x].Rune)
		}
		if y < c.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Styled returns the canvas with ANSI colours, one style per run of equally
// coloured cells.
func (c *Canvas) Styled() string {
	var sb strings.Builder
	for y := 0; y < c.height; y++ {
		row := c.cells[y*c.width : (y+1)*c.width]
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && row[end].Color == row[start].Color {
				end++
			}
			var run strings.Builder
			for _, cell := range row[start:end] {
				run.WriteRune(cell.Rune)
			}
			if row[start].Color == (color.RGBA{}) {
				sb.WriteString(run.String())
			} else {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(Hex(row[start].Color)))
				sb.WriteString(style.Render(run.String()))
			}
			start = end
		}
		if y < c.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
