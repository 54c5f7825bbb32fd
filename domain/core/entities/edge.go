package entities

import "cogmap/domain/core/valueobjects"

// Edge is the parent-to-child link implied by a node's parent pointer.
// Edges are never stored; they are projected from the node set.
type Edge struct {
	ID     string              `json:"id"`
	Source valueobjects.NodeID `json:"source"`
	Target valueobjects.NodeID `json:"target"`
}

// EdgeID builds the "<parent>-<child>" identifier
func EdgeID(parent, child valueobjects.NodeID) string {
	return parent.String() + "-" + child.String()
}

// EdgeFor projects the edge for n; ok is false for the root
func EdgeFor(n *Node) (Edge, bool) {
	if n.IsRoot() {
		return Edge{}, false
	}
	return Edge{
		ID:     EdgeID(n.parentID, n.id),
		Source: n.parentID,
		Target: n.id,
	}, true
}
