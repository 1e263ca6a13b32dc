package netmodel

import (
	"maps"
	"slices"
)

// NodeSnapshot is the visible state of one neuron.
type NodeSnapshot struct {
	Bias float64 `json:"bias"`
}

// LinkSnapshot is the visible state of one connection.
type LinkSnapshot struct {
	Weight float64 `json:"weight"`
}

// Snapshot is the entire visible state of a network at one point in time.
// A published snapshot must not be mutated; producers hand out copies.
type Snapshot struct {
	Generation uint64
	Nodes      map[NodeID]NodeSnapshot
	Links      map[LinkID]LinkSnapshot
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Nodes: make(map[NodeID]NodeSnapshot),
		Links: make(map[LinkID]LinkSnapshot),
	}
}

// NodeIDs returns the node ids in ascending order.
func (s *Snapshot) NodeIDs() []NodeID {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.Nodes))
}

// LinkIDs returns the link ids ordered by source, then destination.
func (s *Snapshot) LinkIDs() []LinkID {
	if s == nil {
		return nil
	}
	ids := slices.Collect(maps.Keys(s.Links))
	slices.SortFunc(ids, func(a, b LinkID) int {
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

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Generation: s.Generation,
		Nodes:      maps.Clone(s.Nodes),
		Links:      maps.Clone(s.Links),
	}
}

// Dangling returns the links whose endpoints are not both present in Nodes.
// Producers are expected to never publish such links.
func (s *Snapshot) Dangling() []LinkID {
	var out []LinkID
	for _, id := range s.LinkIDs() {
		_, srcOK := s.Nodes[id.Src]
		_, dstOK := s.Nodes[id.Dst]
		if !srcOK || !dstOK {
			out = append(out, id)
		}
	}
	return out
}
