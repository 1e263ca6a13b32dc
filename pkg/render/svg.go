package render

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
)

// SVGOptions configures WriteSVG.
type SVGOptions struct {
	Width  int
	Height int
	Title  string
	RunID  string
}

// svgSurface collects SVG elements in world coordinates; the viewBox does
// the fitting.
type svgSurface struct {
	buf bytes.Buffer
}

func (s *svgSurface) Circle(center r2.Vec, radius float64, fill color.RGBA) {
	fmt.Fprintf(&s.buf, "  <circle cx=\"%.4f\" cy=\"%.4f\" r=\"%.4f\" fill=\"%s\"/>\n",
		center.X, center.Y, radius, Hex(fill))
}

func (s *svgSurface) Ring(center r2.Vec, radius, width float64, stroke color.RGBA) {
	fmt.Fprintf(&s.buf, "  <circle cx=\"%.4f\" cy=\"%.4f\" r=\"%.4f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.4f\"/>\n",
		center.X, center.Y, radius, Hex(stroke), width)
}

func (s *svgSurface) Line(a, b r2.Vec, width float64, stroke color.RGBA) {
	fmt.Fprintf(&s.buf, "  <line x1=\"%.4f\" y1=\"%.4f\" x2=\"%.4f\" y2=\"%.4f\" stroke=\"%s\" stroke-width=\"%.4f\"/>\n",
		a.X, a.Y, b.X, b.Y, Hex(stroke), width)
}

// WriteSVG writes items as a standalone SVG document framing rect. The
// document keeps the world aspect ratio inside the requested size.
func WriteSVG(w io.Writer, items []Renderable, rect r2.Box, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}

	var surf svgSurface
	Draw(&surf, items)

	vw := rect.Max.X - rect.Min.X
	vh := rect.Max.Y - rect.Min.Y
	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%d" height="%d" viewBox="%.4f %.4f %.4f %.4f" preserveAspectRatio="xMidYMid meet" xmlns="http://www.w3.org/2000/svg">
`, opts.Width, opts.Height, rect.Min.X, rect.Min.Y, vw, vh)
	if opts.Title != "" {
		fmt.Fprintf(&doc, "  <title>%s</title>\n", html.EscapeString(opts.Title))
	}
	if opts.RunID != "" {
		fmt.Fprintf(&doc, "  <metadata>run %s</metadata>\n", html.EscapeString(opts.RunID))
	}
	fmt.Fprintf(&doc, "  <rect x=\"%.4f\" y=\"%.4f\" width=\"%.4f\" height=\"%.4f\" fill=\"%s\"/>\n",
		rect.Min.X, rect.Min.Y, vw, vh, Hex(Background))
	doc.Write(surf.buf.Bytes())
	doc.WriteString("</svg>\n")

	if _, err := w.Write(doc.Bytes()); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}
