package render

import (
	"bytes"
	"encoding/json"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

func buildScene(t *testing.T, pos map[int]r2.Vec, links ...[2]int) *scene.Scene {
	t.Helper()
	sc := scene.New(scene.Options{Placement: scene.PlacementFunc(func(id netmodel.NodeID, _ int) r2.Vec {
		return pos[int(id)]
	})})
	snap := netmodel.NewSnapshot()
	for id := range pos {
		snap.Nodes[netmodel.NodeID(id)] = netmodel.NodeSnapshot{Bias: 1}
	}
	for _, l := range links {
		snap.Links[netmodel.Link(netmodel.NodeID(l[0]), netmodel.NodeID(l[1]))] = netmodel.LinkSnapshot{Weight: -2}
	}
	sc.Sync(snap)
	sc.Flush(scene.Discard{})
	return sc
}

func TestSignColor(t *testing.T) {
	assert.Equal(t, color.RGBA{A: 255}, SignColor(0))

	pos := SignColor(1)
	assert.Equal(t, uint8(math.Round(255*(1-math.Exp(-1)))), pos.R)
	assert.Zero(t, pos.B)

	neg := SignColor(-1)
	assert.Equal(t, pos.R, neg.B)
	assert.Zero(t, neg.R)

	assert.Greater(t, SignColor(3).R, SignColor(0.5).R)
	assert.Equal(t, "#cdc0b4", Hex(Background))
}

func TestLinkSegment(t *testing.T) {
	a := &scene.VisualNode{Pos: r2.Vec{}, Radius: 1}
	b := &scene.VisualNode{Pos: r2.Vec{X: 10}, Radius: 2}

	p, q, ok := LinkSegment(a, b)
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: 1}, p)
	assert.Equal(t, r2.Vec{X: 8}, q)

	b.Pos = r2.Vec{X: 3}
	_, _, ok = LinkSegment(a, b)
	assert.False(t, ok, "touching discs draw no link")
}

func TestLoopCircleSitsAboveNode(t *testing.T) {
	n := &scene.VisualNode{Pos: r2.Vec{X: 2, Y: 2}, Radius: 1}
	c, r := LoopCircle(n)
	assert.InDelta(t, n.Radius+r, r2.Norm(r2.Sub(c, n.Pos)), 1e-12)
	assert.Less(t, c.Y, n.Pos.Y)
}

func TestFitKeepsAspect(t *testing.T) {
	rect := r2.Box{Min: r2.Vec{X: -10, Y: -5}, Max: r2.Vec{X: 10, Y: 5}}

	tf := Fit(rect, 100, 100, 1)
	assert.Equal(t, tf.Scale.X, tf.Scale.Y)
	assert.Equal(t, r2.Vec{X: 0, Y: 25}, tf.Apply(rect.Min))
	assert.Equal(t, r2.Vec{X: 100, Y: 75}, tf.Apply(rect.Max))

	tf = Fit(rect, 40, 10, TerminalAspect)
	assert.InDelta(t, tf.Scale.X, tf.Scale.Y*TerminalAspect, 1e-12)
	lo, hi := tf.Apply(rect.Min), tf.Apply(rect.Max)
	assert.GreaterOrEqual(t, lo.X, -1e-9)
	assert.LessOrEqual(t, hi.X, 40+1e-9)
	assert.GreaterOrEqual(t, lo.Y, -1e-9)
	assert.LessOrEqual(t, hi.Y, 10+1e-9)
}

func TestFitDegenerateRect(t *testing.T) {
	tf := Fit(r2.Box{}, 10, 10, 1)
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, tf.Scale)
}

func TestSpritesPerKind(t *testing.T) {
	sc := buildScene(t, map[int]r2.Vec{
		1: {X: 0},
		2: {X: 10},
		3: {X: 10.5},
	}, [2]int{1, 2}, [2]int{2, 1}, [2]int{1, 1}, [2]int{2, 3})

	items := Sprites(sc)

	var nodes, links, loops int
	for _, it := range items {
		switch it.(type) {
		case NodeSprite:
			nodes++
		case LinkSprite:
			links++
		case LoopSprite:
			loops++
		}
	}
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 2, links, "2->3 overlaps and is not drawn")
	assert.Equal(t, 1, loops)

	// Nodes paint last.
	_, ok := items[len(items)-1].(NodeSprite)
	assert.True(t, ok)
}

func TestCanvasDrawsLinkAndNodes(t *testing.T) {
	sc := buildScene(t, map[int]r2.Vec{1: {X: -10}, 2: {X: 10}}, [2]int{1, 2})
	rect := r2.Box{Min: r2.Vec{X: -12, Y: -6}, Max: r2.Vec{X: 12, Y: 6}}

	c := NewCanvas(48, 12, rect)
	Draw(c, Sprites(sc))
	out := c.String()

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 12)
	for _, l := range lines {
		assert.Equal(t, 48, len([]rune(l)))
	}
	assert.Contains(t, out, "─")
	assert.Contains(t, out, "█")

	mid := c.At(24, 6)
	assert.Equal(t, '─', mid.Rune)
	assert.Equal(t, SignColor(-2), mid.Color)
	assert.Equal(t, Cell{Rune: ' '}, c.At(-1, 0))
}

func TestCanvasStyledKeepsText(t *testing.T) {
	c := NewCanvas(4, 1, r2.Box{Min: r2.Vec{X: -1, Y: -1}, Max: r2.Vec{X: 1, Y: 1}})
	c.set(0, 0, 'x', SignColor(1))
	assert.Contains(t, c.Styled(), "x")
}

func TestSlopeGlyph(t *testing.T) {
	assert.Equal(t, '─', slopeGlyph(5, 1))
	assert.Equal(t, '│', slopeGlyph(0, 5))
	assert.Equal(t, '╲', slopeGlyph(3, 3))
	assert.Equal(t, '╱', slopeGlyph(3, -3))
}

func TestWriteSVG(t *testing.T) {
	sc := buildScene(t, map[int]r2.Vec{1: {X: -10}, 2: {X: 10}}, [2]int{1, 2}, [2]int{2, 2})
	rect := r2.Box{Min: r2.Vec{X: -12, Y: -12}, Max: r2.Vec{X: 12, Y: 12}}

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, Sprites(sc), rect, SVGOptions{Title: "gen <3>", RunID: "abc"}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `viewBox="-12.0000 -12.0000 24.0000 24.0000"`)
	assert.Contains(t, out, `preserveAspectRatio="xMidYMid meet"`)
	assert.Contains(t, out, "gen &lt;3&gt;")
	assert.Contains(t, out, "run abc")
	assert.Equal(t, 1, strings.Count(out, "<line "))
	// Two nodes, one loop ring.
	assert.Equal(t, 3, strings.Count(out, "<circle "))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestSubstrateTracksEntities(t *testing.T) {
	repaints := 0
	sub := NewSubstrate(40, 10, func() { repaints++ }, nil)

	sub.Add(scene.NodeRef(1))
	sub.Add(scene.NodeRef(1))
	sub.Add(scene.LinkRef(netmodel.Link(1, 2)))
	assert.Equal(t, 2, sub.Known())

	sub.Remove(scene.NodeRef(7))
	sub.Remove(scene.NodeRef(1))
	assert.Equal(t, 1, sub.Known())

	sub.RequestRepaint()
	assert.Equal(t, 1, repaints)
	assert.Equal(t, uint64(1), sub.Repaints())

	rect := r2.Box{Max: r2.Vec{X: 5, Y: 5}}
	sub.SetVisibleRect(rect)
	assert.Equal(t, rect, sub.VisibleRect())

	sub.Resize(80, 20)
	w, h := sub.ViewportSize()
	assert.Equal(t, 80, w)
	assert.Equal(t, 20, h)
}

func TestSubstrateFrame(t *testing.T) {
	sc := buildScene(t, map[int]r2.Vec{1: {}})
	sub := NewSubstrate(20, 10, nil, nil)
	sub.SetVisibleRect(r2.Box{Min: r2.Vec{X: -5, Y: -5}, Max: r2.Vec{X: 5, Y: 5}})

	c := sub.Frame(sc)
	w, h := c.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
	assert.Contains(t, c.String(), "█")
}

func TestExport(t *testing.T) {
	sc := buildScene(t, map[int]r2.Vec{2: {X: 1}, 1: {X: 5}}, [2]int{2, 1}, [2]int{1, 2})
	doc := Export(sc, r2.Box{Max: r2.Vec{X: 1, Y: 2}})

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, 1, doc.Nodes[0].ID)
	assert.Equal(t, 5.0, doc.Nodes[0].X)
	require.Len(t, doc.Links, 2)
	assert.Equal(t, LinkDoc{Src: 1, Dst: 2, Weight: -2, Bidirectional: true, Color: Hex(SignColor(-2))}, doc.Links[0])
	assert.Equal(t, [4]float64{0, 0, 1, 2}, doc.Extent)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	var back SceneDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, doc, back)
}
