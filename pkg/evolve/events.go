package evolve

import (
	"fmt"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

// MutationKind names a mutation.
type MutationKind string

const (
	AddNode       MutationKind = "add_node"
	AddLink       MutationKind = "add_link"
	DeleteNode    MutationKind = "delete_node"
	DeleteLink    MutationKind = "delete_link"
	PerturbBias   MutationKind = "perturb_bias"
	PerturbWeight MutationKind = "perturb_weight"
)

// Structural reports whether k changes the topology.
func (k MutationKind) Structural() bool {
	return k != PerturbBias && k != PerturbWeight
}

// MutationEvent describes one applied mutation. For AddNode, Link is the
// link that was split.
type MutationEvent struct {
	Generation uint64
	Kind       MutationKind
	Node       netmodel.NodeID
	Link       netmodel.LinkID
}

func (e MutationEvent) String() string {
	switch e.Kind {
	case AddNode:
		return fmt.Sprintf("gen %d: node %d splits %s", e.Generation, e.Node, e.Link)
	case DeleteNode, PerturbBias:
		return fmt.Sprintf("gen %d: %s %d", e.Generation, e.Kind, e.Node)
	default:
		return fmt.Sprintf("gen %d: %s %s", e.Generation, e.Kind, e.Link)
	}
}
