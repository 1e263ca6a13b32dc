// Package netmodel defines the read-only view of a neural network that the
// visual layer consumes: node and link identifiers plus per-tick snapshots of
// node biases and link weights.
package netmodel

import "fmt"

// NodeID identifies a neuron. Ids are totally ordered.
type NodeID int

// LinkID identifies a directed connection by its ordered endpoint pair.
// Swapping the endpoints yields a distinct id, the reverse of this one.
type LinkID struct {
	Src NodeID
	Dst NodeID
}

// Link returns the id of the connection src -> dst.
func Link(src, dst NodeID) LinkID {
	return LinkID{Src: src, Dst: dst}
}

// Reverse returns the id with swapped endpoints.
func (l LinkID) Reverse() LinkID {
	return LinkID{Src: l.Dst, Dst: l.Src}
}

// IsLoop reports whether the link connects a node to itself.
func (l LinkID) IsLoop() bool {
	return l.Src == l.Dst
}

// Less orders links by source, then destination.
func (l LinkID) Less(o LinkID) bool {
	if l.Src != o.Src {
		return l.Src < o.Src
	}
	return l.Dst < o.Dst
}

func (l LinkID) String() string {
	return fmt.Sprintf("%d->%d", l.Src, l.Dst)
}
