package scene

import (
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/netmodel"
)

// SyncStats summarises one reconciliation.
type SyncStats struct {
	NodesCreated int
	LinksCreated int
	NodesRetired int
	LinksRetired int
	// Dangling counts links skipped because an endpoint node was missing.
	Dangling int
}

// Sync reconciles the scene against snap in place. Existing entities keep
// their identity, position and velocity; new ones are placed and flagged
// pending-add; entities missing from snap are flagged pending-remove and left
// for Flush to retire. A nil snapshot retires everything.
//
// snap is only read during the call.
func (s *Scene) Sync(snap *netmodel.Snapshot) SyncStats {
	var stats SyncStats

	s.Nodes.ForEach(func(_ netmodel.NodeID, _ Handle, n *VisualNode) bool {
		n.PendingRemove = true
		return true
	})
	s.Links.ForEach(func(_ netmodel.LinkID, _ Handle, l *VisualLink) bool {
		l.PendingRemove = true
		return true
	})

	if snap != nil {
		// Nodes first: links bind to node handles.
		for _, id := range snap.NodeIDs() {
			_, n, created := s.Nodes.GetOrCreate(id)
			if created {
				n.Pos = s.placement.Place(id, s.Nodes.Len())
				n.Radius = s.nodeRadius
				n.PendingAdd = true
				stats.NodesCreated++
			}
			n.Bias = snap.Nodes[id].Bias
			n.PendingRemove = false
		}

		for _, id := range snap.LinkIDs() {
			src, srcOK := s.liveNode(id.Src)
			dst, dstOK := s.liveNode(id.Dst)
			if !srcOK || !dstOK {
				stats.Dangling++
				s.logger.Warn("skipping link with missing endpoint",
					logging.Link(int(id.Src), int(id.Dst)),
					logging.Bool("src_present", srcOK),
					logging.Bool("dst_present", dstOK),
				)
				continue
			}

			_, l, created := s.Links.GetOrCreate(id)
			if created {
				l.Src, l.Dst = src, dst
				l.PendingAdd = true
				stats.LinksCreated++
				if !id.IsLoop() {
					if rev, ok := s.Links.Find(id.Reverse()); ok {
						l.Bidirectional = true
						rev.Bidirectional = true
					}
				}
			}
			l.Weight = snap.Links[id].Weight
			l.PendingRemove = false
		}
	}

	s.Nodes.ForEach(func(_ netmodel.NodeID, _ Handle, n *VisualNode) bool {
		if n.PendingRemove {
			stats.NodesRetired++
		}
		return true
	})
	s.Links.ForEach(func(_ netmodel.LinkID, _ Handle, l *VisualLink) bool {
		if l.PendingRemove {
			stats.LinksRetired++
		}
		return true
	})

	return stats
}

// liveNode returns the handle of a node that survives this sync. Nodes absent
// from the snapshot are already flagged pending-remove and do not count.
func (s *Scene) liveNode(id netmodel.NodeID) (Handle, bool) {
	h, ok := s.Nodes.Lookup(id)
	if !ok {
		return Handle{}, false
	}
	n, _ := s.Nodes.Get(h)
	return h, !n.PendingRemove
}
