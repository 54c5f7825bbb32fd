package aggregates

import (
	"fmt"
	"time"

	"cogmap/domain/core/entities"
	"cogmap/domain/core/valueobjects"
	"cogmap/domain/events"
	pkgerrors "cogmap/pkg/errors"
)

// Tree is the aggregate root for the exploration tree.
// It exclusively owns the node collection: nodes live in an arena keyed by
// id, and order records insertion sequence. Edges are never stored; they are
// projected from parent pointers on demand.
//
// A Tree is not safe for concurrent use. It is owned by a single execution
// context (see application/session).
type Tree struct {
	rootID valueobjects.NodeID
	nodes  map[valueobjects.NodeID]*entities.Node
	order  []valueobjects.NodeID
	events []events.DomainEvent
	now    func() time.Time
}

// NodeRecord is the flat form of a node used to rebuild a tree from storage
type NodeRecord struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ParentID string `json:"parent_id,omitempty"`
}

// NewTree creates a tree holding only its root node
func NewTree(rootID valueobjects.NodeID, rootLabel string) (*Tree, error) {
	root, err := entities.NewRootNode(rootID, rootLabel)
	if err != nil {
		return nil, err
	}

	return &Tree{
		rootID: rootID,
		nodes:  map[valueobjects.NodeID]*entities.Node{rootID: root},
		order:  []valueobjects.NodeID{rootID},
		events: []events.DomainEvent{},
		now:    time.Now,
	}, nil
}

// RebuildTree recreates a tree from records in insertion order.
// The first record must be the root; every later record must name a parent
// that appears earlier. Rebuilding raises no domain events.
func RebuildTree(records []NodeRecord) (*Tree, error) {
	if len(records) == 0 {
		return nil, pkgerrors.NewValidation("cannot rebuild tree from zero records")
	}
	if records[0].ParentID != "" {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("first record %q is not a root", records[0].ID))
	}

	tree, err := NewTree(valueobjects.NodeID(records[0].ID), records[0].Label)
	if err != nil {
		return nil, err
	}
	for _, r := range records[1:] {
		if _, err := tree.Insert(valueobjects.NodeID(r.ID), r.Label, valueobjects.NodeID(r.ParentID)); err != nil {
			return nil, pkgerrors.Wrap(err, "rebuild tree")
		}
	}
	tree.MarkEventsAsCommitted()

	return tree, nil
}

// ID returns the aggregate id, which is the root's id
func (t *Tree) ID() string {
	return t.rootID.String()
}

// RootID returns the id of the root node
func (t *Tree) RootID() valueobjects.NodeID {
	return t.rootID
}

// Root returns a copy of the root node
func (t *Tree) Root() entities.Node {
	return *t.nodes[t.rootID]
}

// Len returns the number of nodes, root included
func (t *Tree) Len() int {
	return len(t.order)
}

// Contains reports whether id is in the tree
func (t *Tree) Contains(id valueobjects.NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id
func (t *Tree) Node(id valueobjects.NodeID) (entities.Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return entities.Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in insertion order
func (t *Tree) Nodes() []entities.Node {
	nodes := make([]entities.Node, 0, len(t.order))
	for _, id := range t.order {
		nodes = append(nodes, *t.nodes[id])
	}
	return nodes
}

// Edges projects one edge per non-root node, in insertion order of the child
func (t *Tree) Edges() []entities.Edge {
	edges := make([]entities.Edge, 0, len(t.order))
	for _, id := range t.order {
		if edge, ok := entities.EdgeFor(t.nodes[id]); ok {
			edges = append(edges, edge)
		}
	}
	return edges
}

// Records flattens the tree for storage, in insertion order
func (t *Tree) Records() []NodeRecord {
	records := make([]NodeRecord, 0, len(t.order))
	for _, id := range t.order {
		n := t.nodes[id]
		records = append(records, NodeRecord{
			ID:       n.ID().String(),
			Label:    n.Label(),
			ParentID: n.ParentID().String(),
		})
	}
	return records
}

// Insert adds a node below parentID.
// Fails with DuplicateID if id exists and InvalidParent if parentID does not.
// The new node's depth is parent depth + 1; no other node changes.
func (t *Tree) Insert(id valueobjects.NodeID, label string, parentID valueobjects.NodeID) (entities.Node, error) {
	if id.IsZero() {
		return entities.Node{}, pkgerrors.NewValidation("node id cannot be empty")
	}
	if _, exists := t.nodes[id]; exists {
		return entities.Node{}, pkgerrors.NewDuplicateID(id.String())
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return entities.Node{}, pkgerrors.NewInvalidParent(parentID.String())
	}

	node, err := entities.NewChildNode(id, label, parent)
	if err != nil {
		return entities.Node{}, err
	}
	t.nodes[id] = node
	t.order = append(t.order, id)

	t.addEvent(events.NewNodeInserted(t.ID(), id, parentID, node.Depth(), t.now()))

	return *node, nil
}

// RemoveSubtree deletes id and every node whose ancestor chain reaches id.
// It returns the removed ids in insertion order, id first.
func (t *Tree) RemoveSubtree(id valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if id == t.rootID {
		return nil, pkgerrors.NewRootDeletionForbidden(id.String())
	}
	if _, ok := t.nodes[id]; !ok {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %q not found", id))
	}

	// Parents always precede their children in order, so one pass marks
	// the whole subtree.
	doomed := map[valueobjects.NodeID]bool{id: true}
	for _, nid := range t.order {
		if doomed[t.nodes[nid].ParentID()] {
			doomed[nid] = true
		}
	}

	removed := make([]valueobjects.NodeID, 0, len(doomed))
	kept := t.order[:0]
	for _, nid := range t.order {
		if doomed[nid] {
			removed = append(removed, nid)
			delete(t.nodes, nid)
			continue
		}
		kept = append(kept, nid)
	}
	t.order = kept

	t.addEvent(events.NewSubtreeRemoved(t.ID(), id, removed, t.now()))

	return removed, nil
}

// Relabel replaces a node's label in place
func (t *Tree) Relabel(id valueobjects.NodeID, label string) error {
	node, ok := t.nodes[id]
	if !ok {
		return pkgerrors.NewNotFound(fmt.Sprintf("node %q not found", id))
	}

	old := node.Label()
	node.Relabel(label)

	t.addEvent(events.NewNodeRelabeled(t.ID(), id, old, label, t.now()))

	return nil
}

// AncestorsOf returns the chain from id up to and including the root
func (t *Tree) AncestorsOf(id valueobjects.NodeID) ([]entities.Node, error) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %q not found", id))
	}

	chain := make([]entities.Node, 0, node.Depth()+1)
	for steps := 0; ; steps++ {
		if steps > len(t.order) {
			return nil, pkgerrors.NewInternal(fmt.Sprintf("ancestor chain of %q does not reach the root", id), nil)
		}
		chain = append(chain, *node)
		if node.IsRoot() {
			return chain, nil
		}
		parent, ok := t.nodes[node.ParentID()]
		if !ok {
			return nil, pkgerrors.NewInternal(fmt.Sprintf("node %q has dangling parent %q", node.ID(), node.ParentID()), nil)
		}
		node = parent
	}
}

// Children returns copies of id's direct children in insertion order
func (t *Tree) Children(id valueobjects.NodeID) []entities.Node {
	var children []entities.Node
	for _, nid := range t.order {
		if n := t.nodes[nid]; n.ParentID() == id && !n.IsRoot() {
			children = append(children, *n)
		}
	}
	return children
}

// CheckInvariants verifies the structural rules of the tree:
// exactly one root, every parent present, depth = parent depth + 1.
func (t *Tree) CheckInvariants() error {
	if len(t.nodes) != len(t.order) {
		return pkgerrors.NewInternal(fmt.Sprintf("arena holds %d nodes but order holds %d", len(t.nodes), len(t.order)), nil)
	}
	roots := 0
	for _, id := range t.order {
		n, ok := t.nodes[id]
		if !ok {
			return pkgerrors.NewInternal(fmt.Sprintf("ordered id %q missing from arena", id), nil)
		}
		if n.IsRoot() {
			roots++
			if n.Depth() != 0 {
				return pkgerrors.NewInternal(fmt.Sprintf("root %q has depth %d", id, n.Depth()), nil)
			}
			continue
		}
		parent, ok := t.nodes[n.ParentID()]
		if !ok {
			return pkgerrors.NewInternal(fmt.Sprintf("node %q has dangling parent %q", id, n.ParentID()), nil)
		}
		if n.Depth() != parent.Depth()+1 {
			return pkgerrors.NewInternal(fmt.Sprintf("node %q depth %d, parent depth %d", id, n.Depth(), parent.Depth()), nil)
		}
	}
	if roots != 1 {
		return pkgerrors.NewInternal(fmt.Sprintf("tree has %d roots", roots), nil)
	}
	return nil
}

// GetUncommittedEvents returns events raised since the last commit
func (t *Tree) GetUncommittedEvents() []events.DomainEvent {
	return t.events
}

// MarkEventsAsCommitted clears the pending events
func (t *Tree) MarkEventsAsCommitted() {
	t.events = []events.DomainEvent{}
}

func (t *Tree) addEvent(event events.DomainEvent) {
	t.events = append(t.events, event)
}
