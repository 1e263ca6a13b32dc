package netmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkIDReverse(t *testing.T) {
	l := Link(1, 2)
	assert.Equal(t, Link(2, 1), l.Reverse())
	assert.NotEqual(t, l, l.Reverse())
	assert.Equal(t, l, l.Reverse().Reverse())
	assert.False(t, l.IsLoop())
	assert.True(t, Link(3, 3).IsLoop())
	assert.Equal(t, Link(3, 3), Link(3, 3).Reverse())
}

func TestLinkIDLess(t *testing.T) {
	assert.True(t, Link(1, 5).Less(Link(2, 0)))
	assert.True(t, Link(1, 2).Less(Link(1, 3)))
	assert.False(t, Link(1, 3).Less(Link(1, 3)))
	assert.Equal(t, "4->-1", Link(4, -1).String())
}

func TestSnapshotOrdering(t *testing.T) {
	s := NewSnapshot()
	for _, id := range []NodeID{5, -2, 3, 0} {
		s.Nodes[id] = NodeSnapshot{}
	}
	s.Links[Link(3, 0)] = LinkSnapshot{}
	s.Links[Link(-2, 5)] = LinkSnapshot{}
	s.Links[Link(3, -2)] = LinkSnapshot{}

	assert.Equal(t, []NodeID{-2, 0, 3, 5}, s.NodeIDs())
	assert.Equal(t, []LinkID{Link(-2, 5), Link(3, -2), Link(3, 0)}, s.LinkIDs())
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	s := NewSnapshot()
	s.Generation = 7
	s.Nodes[1] = NodeSnapshot{Bias: 0.5}
	s.Links[Link(1, 1)] = LinkSnapshot{Weight: 2}

	c := s.Clone()
	require.Equal(t, s, c)

	c.Nodes[1] = NodeSnapshot{Bias: -1}
	delete(c.Links, Link(1, 1))
	assert.Equal(t, 0.5, s.Nodes[1].Bias)
	assert.Len(t, s.Links, 1)

	var nilSnap *Snapshot
	assert.Nil(t, nilSnap.Clone())
	assert.Nil(t, nilSnap.NodeIDs())
}

func TestSnapshotDangling(t *testing.T) {
	s := NewSnapshot()
	s.Nodes[1] = NodeSnapshot{}
	s.Links[Link(1, 1)] = LinkSnapshot{}
	s.Links[Link(1, 2)] = LinkSnapshot{}
	s.Links[Link(3, 1)] = LinkSnapshot{}

	assert.Equal(t, []LinkID{Link(1, 2), Link(3, 1)}, s.Dangling())
}
