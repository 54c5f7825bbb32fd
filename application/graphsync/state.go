package graphsync

import (
	"fmt"

	"cogmap/domain/core/aggregates"
	"cogmap/domain/core/valueobjects"
	"cogmap/domain/services"
	pkgerrors "cogmap/pkg/errors"
)

// State is everything the update handler owns: the tree, the current
// pointer, the last computed layout and the ids removed by cascades.
// It must only be touched from one execution context.
type State struct {
	Tree    *aggregates.Tree
	Current valueobjects.NodeID
	Placed  []services.PlacedNode

	// removed holds descendants deleted as part of a subtree until their
	// per-id delete echo from the authority arrives. Each entry is dropped
	// when its echo is consumed or the id is re-added.
	removed map[valueobjects.NodeID]struct{}
}

// NewState wraps a tree with focus on current, or on the root when current
// is not in the tree
func NewState(tree *aggregates.Tree, current valueobjects.NodeID) *State {
	if !tree.Contains(current) {
		current = tree.RootID()
	}
	return &State{
		Tree:    tree,
		Current: current,
		removed: make(map[valueobjects.NodeID]struct{}),
	}
}

// Focus moves the current pointer to an existing node
func (s *State) Focus(id valueobjects.NodeID) error {
	if !s.Tree.Contains(id) {
		return pkgerrors.NewNotFound(fmt.Sprintf("node %q not found", id))
	}
	s.Current = id
	return nil
}

// consumeTombstone reports whether id awaits its cascade echo and forgets
// it; each removed descendant is echoed exactly once.
func (s *State) consumeTombstone(id valueobjects.NodeID) bool {
	if _, ok := s.removed[id]; !ok {
		return false
	}
	delete(s.removed, id)
	return true
}

// Tombstones returns how many cascade echoes are still expected
func (s *State) Tombstones() int {
	return len(s.removed)
}
