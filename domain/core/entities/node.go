package entities

import (
	"strings"

	"cogmap/domain/core/valueobjects"
	pkgerrors "cogmap/pkg/errors"
)

// Node is a labeled point in the exploration tree
type Node struct {
	id       valueobjects.NodeID
	label    string
	depth    int
	parentID valueobjects.NodeID // zero for the root
}

// NewRootNode creates the depth-0 node that anchors a tree
func NewRootNode(id valueobjects.NodeID, label string) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("root id cannot be empty")
	}
	return &Node{id: id, label: label}, nil
}

// NewChildNode creates a node one level below parent
func NewChildNode(id valueobjects.NodeID, label string, parent *Node) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("node id cannot be empty")
	}
	if parent == nil {
		return nil, pkgerrors.NewInvalidParent("")
	}
	return &Node{
		id:       id,
		label:    label,
		depth:    parent.depth + 1,
		parentID: parent.id,
	}, nil
}

// ID returns the node's unique identifier
func (n Node) ID() valueobjects.NodeID {
	return n.id
}

// Label returns the node's display text
func (n Node) Label() string {
	return n.label
}

// DisplayLabel returns the label, falling back to the id when blank
func (n Node) DisplayLabel() string {
	if strings.TrimSpace(n.label) == "" {
		return n.id.String()
	}
	return n.label
}

// Depth returns the distance from the root
func (n Node) Depth() int {
	return n.depth
}

// ParentID returns the parent id, zero for the root
func (n Node) ParentID() valueobjects.NodeID {
	return n.parentID
}

// IsRoot reports whether the node has no parent
func (n Node) IsRoot() bool {
	return n.parentID.IsZero()
}

// Relabel replaces the label, leaving depth and parent untouched
func (n *Node) Relabel(label string) {
	n.label = label
}
