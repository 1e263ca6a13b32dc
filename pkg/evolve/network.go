// Package evolve is a small NEAT-style network that mutates over time. It
// is the demo producer for the view: every generation it applies structural
// and attribute mutations and publishes an immutable snapshot.
package evolve

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

var (
	// ErrNoLinks is returned when a mutation needs a link and there is none.
	ErrNoLinks = errors.New("network has no links")
	// ErrNoHidden is returned when a mutation needs a hidden node and there is none.
	ErrNoHidden = errors.New("network has no hidden nodes")
	// ErrSaturated is returned when no new link can be placed.
	ErrSaturated = errors.New("no free link slot found")
)

// Role distinguishes the node kinds of a network.
type Role int

const (
	Input Role = iota
	Output
	Hidden
)

func (r Role) String() string {
	switch r {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "hidden"
	}
}

// NodeGene is one neuron.
type NodeGene struct {
	Role Role
	Bias float64
}

// LinkGene is one connection.
type LinkGene struct {
	Weight float64
}

// Config tunes mutation. Rates are per generation probabilities.
type Config struct {
	Inputs  int `yaml:"inputs" toml:"inputs" ini:"num_inputs" validate:"gte=1"`
	Outputs int `yaml:"outputs" toml:"outputs" ini:"num_outputs" validate:"gte=1"`

	NodeAddProb    float64 `yaml:"node_add_prob" toml:"node_add_prob" ini:"node_add_prob" validate:"gte=0,lte=1"`
	NodeDeleteProb float64 `yaml:"node_delete_prob" toml:"node_delete_prob" ini:"node_delete_prob" validate:"gte=0,lte=1"`
	LinkAddProb    float64 `yaml:"link_add_prob" toml:"link_add_prob" ini:"conn_add_prob" validate:"gte=0,lte=1"`
	LinkDeleteProb float64 `yaml:"link_delete_prob" toml:"link_delete_prob" ini:"conn_delete_prob" validate:"gte=0,lte=1"`

	BiasMutateRate    float64 `yaml:"bias_mutate_rate" toml:"bias_mutate_rate" ini:"bias_mutate_rate" validate:"gte=0,lte=1"`
	BiasMutatePower   float64 `yaml:"bias_mutate_power" toml:"bias_mutate_power" ini:"bias_mutate_power" validate:"gte=0"`
	WeightMutateRate  float64 `yaml:"weight_mutate_rate" toml:"weight_mutate_rate" ini:"weight_mutate_rate" validate:"gte=0,lte=1"`
	WeightMutatePower float64 `yaml:"weight_mutate_power" toml:"weight_mutate_power" ini:"weight_mutate_power" validate:"gte=0"`
	MaxMagnitude      float64 `yaml:"max_magnitude" toml:"max_magnitude" ini:"weight_max_value" validate:"gt=0"`

	// Recurrent allows self-loops and links into input nodes' successors
	// regardless of direction.
	Recurrent bool  `yaml:"recurrent" toml:"recurrent" ini:"recurrent"`
	Seed      int64 `yaml:"seed" toml:"seed" ini:"seed"`
}

// DefaultConfig returns moderate mutation rates for a 3-input 2-output network.
func DefaultConfig() Config {
	return Config{
		Inputs:            3,
		Outputs:           2,
		NodeAddProb:       0.2,
		NodeDeleteProb:    0.05,
		LinkAddProb:       0.4,
		LinkDeleteProb:    0.1,
		BiasMutateRate:    0.7,
		BiasMutatePower:   0.5,
		WeightMutateRate:  0.8,
		WeightMutatePower: 0.5,
		MaxMagnitude:      30,
		Recurrent:         true,
		Seed:              1,
	}
}

// Network is a mutable neuroevolution network. It is safe for concurrent
// use; Snapshot returns copies that are never touched again.
type Network struct {
	mu         sync.Mutex
	cfg        Config
	rng        *rand.Rand
	nodes      map[netmodel.NodeID]*NodeGene
	links      map[netmodel.LinkID]*LinkGene
	nextID     netmodel.NodeID
	generation uint64
}

// NewNetwork creates a network with every input linked to every output.
func NewNetwork(cfg Config) *Network {
	seed := uint64(cfg.Seed)
	n := &Network{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(seed, seed*0x9e3779b97f4a7c15+1)),
		nodes: make(map[netmodel.NodeID]*NodeGene),
		links: make(map[netmodel.LinkID]*LinkGene),
	}

	for i := 0; i < cfg.Inputs; i++ {
		n.addNode(Input)
	}
	for i := 0; i < cfg.Outputs; i++ {
		out := n.addNode(Output)
		for in := netmodel.NodeID(0); in < netmodel.NodeID(cfg.Inputs); in++ {
			n.links[netmodel.Link(in, out)] = &LinkGene{Weight: n.rng.NormFloat64()}
		}
	}
	return n
}

func (n *Network) addNode(role Role) netmodel.NodeID {
	id := n.nextID
	n.nextID++
	g := &NodeGene{Role: role}
	if role != Input {
		g.Bias = n.rng.NormFloat64()
	}
	n.nodes[id] = g
	return id
}

// Generation returns the number of completed Mutate calls.
func (n *Network) Generation() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.generation
}

// Size returns the node and link counts.
func (n *Network) Size() (nodes, links int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.nodes), len(n.links)
}

// Snapshot returns a deep copy of the current state.
func (n *Network) Snapshot() *netmodel.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := netmodel.NewSnapshot()
	s.Generation = n.generation
	for id, g := range n.nodes {
		s.Nodes[id] = netmodel.NodeSnapshot{Bias: g.Bias}
	}
	for id, g := range n.links {
		s.Links[id] = netmodel.LinkSnapshot{Weight: g.Weight}
	}
	return s
}

// Mutate advances one generation and returns what changed.
func (n *Network) Mutate() []MutationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.generation++
	var events []MutationEvent
	record := func(ev MutationEvent, err error) {
		if err == nil {
			ev.Generation = n.generation
			events = append(events, ev)
		}
	}

	if n.rng.Float64() < n.cfg.NodeAddProb {
		record(n.splitLink())
	}
	if n.rng.Float64() < n.cfg.LinkAddProb {
		record(n.addLink())
	}
	if n.rng.Float64() < n.cfg.NodeDeleteProb {
		record(n.deleteNode())
	}
	if n.rng.Float64() < n.cfg.LinkDeleteProb {
		record(n.deleteLink())
	}

	for _, id := range slices.Sorted(maps.Keys(n.nodes)) {
		g := n.nodes[id]
		if g.Role == Input || n.rng.Float64() >= n.cfg.BiasMutateRate {
			continue
		}
		g.Bias = n.perturb(g.Bias, n.cfg.BiasMutatePower)
		events = append(events, MutationEvent{Generation: n.generation, Kind: PerturbBias, Node: id})
	}
	for _, id := range n.sortedLinks() {
		if n.rng.Float64() >= n.cfg.WeightMutateRate {
			continue
		}
		g := n.links[id]
		g.Weight = n.perturb(g.Weight, n.cfg.WeightMutatePower)
		events = append(events, MutationEvent{Generation: n.generation, Kind: PerturbWeight, Link: id})
	}

	return events
}

func (n *Network) perturb(v, power float64) float64 {
	v += n.rng.NormFloat64() * power
	if m := n.cfg.MaxMagnitude; m > 0 {
		v = math.Max(-m, math.Min(m, v))
	}
	return v
}

func (n *Network) sortedLinks() []netmodel.LinkID {
	ids := slices.Collect(maps.Keys(n.links))
	slices.SortFunc(ids, func(a, b netmodel.LinkID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return ids
}

// splitLink replaces a random link a→b with a→new→b. The first half gets
// weight 1 and the second the old weight.
func (n *Network) splitLink() (MutationEvent, error) {
	ids := n.sortedLinks()
	if len(ids) == 0 {
		return MutationEvent{}, ErrNoLinks
	}
	old := ids[n.rng.IntN(len(ids))]
	w := n.links[old].Weight
	delete(n.links, old)

	mid := n.addNode(Hidden)
	n.links[netmodel.Link(old.Src, mid)] = &LinkGene{Weight: 1}
	n.links[netmodel.Link(mid, old.Dst)] = &LinkGene{Weight: w}
	return MutationEvent{Kind: AddNode, Node: mid, Link: old}, nil
}

// addLink connects a random unlinked pair. Links never end in an input.
func (n *Network) addLink() (MutationEvent, error) {
	nodes := slices.Sorted(maps.Keys(n.nodes))
	if len(nodes) == 0 {
		return MutationEvent{}, ErrSaturated
	}
	for attempt := 0; attempt < 20; attempt++ {
		src := nodes[n.rng.IntN(len(nodes))]
		dst := nodes[n.rng.IntN(len(nodes))]
		if n.nodes[dst].Role == Input {
			continue
		}
		if !n.cfg.Recurrent && (src == dst || n.reaches(dst, src)) {
			continue
		}
		id := netmodel.Link(src, dst)
		if _, ok := n.links[id]; ok {
			continue
		}
		n.links[id] = &LinkGene{Weight: n.rng.NormFloat64()}
		return MutationEvent{Kind: AddLink, Link: id}, nil
	}
	return MutationEvent{}, ErrSaturated
}

// reaches reports whether a path from → to exists.
func (n *Network) reaches(from, to netmodel.NodeID) bool {
	seen := map[netmodel.NodeID]bool{from: true}
	stack := []netmodel.NodeID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		for id := range n.links {
			if id.Src == cur && !seen[id.Dst] {
				seen[id.Dst] = true
				stack = append(stack, id.Dst)
			}
		}
	}
	return false
}

// deleteNode removes a random hidden node together with its links.
func (n *Network) deleteNode() (MutationEvent, error) {
	var hidden []netmodel.NodeID
	for _, id := range slices.Sorted(maps.Keys(n.nodes)) {
		if n.nodes[id].Role == Hidden {
			hidden = append(hidden, id)
		}
	}
	if len(hidden) == 0 {
		return MutationEvent{}, ErrNoHidden
	}
	victim := hidden[n.rng.IntN(len(hidden))]
	for id := range n.links {
		if id.Src == victim || id.Dst == victim {
			delete(n.links, id)
		}
	}
	delete(n.nodes, victim)
	return MutationEvent{Kind: DeleteNode, Node: victim}, nil
}

func (n *Network) deleteLink() (MutationEvent, error) {
	ids := n.sortedLinks()
	if len(ids) == 0 {
		return MutationEvent{}, ErrNoLinks
	}
	id := ids[n.rng.IntN(len(ids))]
	delete(n.links, id)
	return MutationEvent{Kind: DeleteLink, Link: id}, nil
}

func (n *Network) String() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fmt.Sprintf("generation %d: %d nodes, %d links", n.generation, len(n.nodes), len(n.links))
}
