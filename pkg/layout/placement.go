package layout

import (
	"math"
	"math/rand/v2"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// Placement names accepted by NewPlacement.
const (
	PlacementRandom = "random"
	PlacementNoise  = "noise"
	PlacementSpiral = "spiral"
)

// RandomPlacement spawns nodes uniformly in a square of half-size
// radius*ceil(sqrt(population)) about the origin, so the spawn area grows
// with the graph.
func RandomPlacement(radius float64, seed uint64) scene.Placement {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return scene.PlacementFunc(func(_ netmodel.NodeID, population int) r2.Vec {
		r := radius * math.Ceil(math.Sqrt(float64(max(population, 1))))
		mu.Lock()
		x, y := rng.Float64()*2-1, rng.Float64()*2-1
		mu.Unlock()
		return r2.Vec{X: r * x, Y: r * y}
	})
}

// NoisePlacement derives the spawn position from simplex noise sampled at the
// node id. The same id and seed always spawn at the same place, which keeps
// re-created nodes near where they were.
func NoisePlacement(radius float64, seed int64) scene.Placement {
	noise := opensimplex.New(seed)
	return scene.PlacementFunc(func(id netmodel.NodeID, population int) r2.Vec {
		r := radius * math.Ceil(math.Sqrt(float64(max(population, 1))))
		t := float64(id) * 0.731
		return r2.Vec{
			X: r * noise.Eval2(t, 0.5),
			Y: r * noise.Eval2(0.5, t+17.3),
		}
	})
}

// NewPlacement resolves a placement policy by name. Unknown names fall back
// to random placement.
func NewPlacement(name string, radius float64, seed int64) scene.Placement {
	switch name {
	case PlacementNoise:
		return NoisePlacement(radius, seed)
	case PlacementSpiral:
		return scene.SpiralPlacement(radius)
	default:
		return RandomPlacement(radius, uint64(seed))
	}
}
