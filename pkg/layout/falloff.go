package layout

import (
	"fmt"
	"math"
	"strings"
)

// Falloff scales repulsion by separation distance d > 0.
type Falloff interface {
	Name() string
	Scale(d float64) float64
}

// Falloff names accepted by ParseFalloff.
const (
	FalloffInverse       = "inverse"
	FalloffInverseSquare = "inverse-square"
	FalloffGaussian      = "gaussian"
)

// ErrUnknownFalloff is returned by ParseFalloff for an unrecognised name.
var ErrUnknownFalloff = fmt.Errorf("unknown falloff")

// Inverse decays as 1/d. Combined with Hookean attraction this puts a single
// linked pair at rest sqrt(repulsion/attraction) apart.
type Inverse struct{}

func (Inverse) Name() string            { return FalloffInverse }
func (Inverse) Scale(d float64) float64 { return 1 / d }

// InverseSquare decays as 1/d².
type InverseSquare struct{}

func (InverseSquare) Name() string            { return FalloffInverseSquare }
func (InverseSquare) Scale(d float64) float64 { return 1 / (d * d) }

// Gaussian decays as exp(-d²/2σ²). It is bounded at d = 0 and negligible
// beyond a few Sigma.
type Gaussian struct {
	Sigma float64
}

func (Gaussian) Name() string { return FalloffGaussian }

func (g Gaussian) Scale(d float64) float64 {
	return math.Exp(-(d * d) / (2 * g.Sigma * g.Sigma))
}

// ParseFalloff resolves a falloff by name. sigma is used only by the
// gaussian law.
func ParseFalloff(name string, sigma float64) (Falloff, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FalloffInverse:
		return Inverse{}, nil
	case FalloffInverseSquare:
		return InverseSquare{}, nil
	case FalloffGaussian:
		if sigma <= 0 {
			return nil, fmt.Errorf("gaussian falloff needs sigma > 0, got %v", sigma)
		}
		return Gaussian{Sigma: sigma}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFalloff, name)
	}
}
