package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// NodeDoc is the exported state of a node.
type NodeDoc struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Bias   float64 `json:"bias"`
	Color  string  `json:"color"`
}

// LinkDoc is the exported state of a link.
type LinkDoc struct {
	Src           int     `json:"src"`
	Dst           int     `json:"dst"`
	Weight        float64 `json:"weight"`
	Bidirectional bool    `json:"bidirectional,omitempty"`
	Color         string  `json:"color"`
}

// SceneDoc is a JSON-friendly dump of a scene.
type SceneDoc struct {
	RunID      string     `json:"run_id"`
	Generation uint64     `json:"generation"`
	Tick       uint64     `json:"tick"`
	Extent     [4]float64 `json:"extent"`
	Nodes      []NodeDoc  `json:"nodes"`
	Links      []LinkDoc  `json:"links"`
}

// Export dumps the live entities of sc sorted by id.
func Export(sc *scene.Scene, rect r2.Box) SceneDoc {
	doc := SceneDoc{
		Extent: [4]float64{rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y},
		Nodes:  []NodeDoc{},
		Links:  []LinkDoc{},
	}

	sc.Nodes.ForEach(func(id netmodel.NodeID, _ scene.Handle, n *scene.VisualNode) bool {
		if !n.PendingRemove {
			doc.Nodes = append(doc.Nodes, NodeDoc{
				ID: int(id), X: n.Pos.X, Y: n.Pos.Y, Radius: n.Radius, Bias: n.Bias,
				Color: Hex(SignColor(n.Bias)),
			})
		}
		return true
	})
	sc.Links.ForEach(func(id netmodel.LinkID, _ scene.Handle, l *scene.VisualLink) bool {
		if !l.PendingRemove {
			doc.Links = append(doc.Links, LinkDoc{
				Src: int(id.Src), Dst: int(id.Dst), Weight: l.Weight, Bidirectional: l.Bidirectional,
				Color: Hex(SignColor(l.Weight)),
			})
		}
		return true
	})

	slices.SortFunc(doc.Nodes, func(a, b NodeDoc) int { return a.ID - b.ID })
	slices.SortFunc(doc.Links, func(a, b LinkDoc) int {
		if a.Src != b.Src {
			return a.Src - b.Src
		}
		return a.Dst - b.Dst
	})
	return doc
}

// WriteJSON encodes doc to w.
func WriteJSON(w io.Writer, doc SceneDoc) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return nil
}
