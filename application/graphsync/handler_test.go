package graphsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogmap/domain/core/aggregates"
	"cogmap/domain/core/valueobjects"
	"cogmap/domain/services"
	pkgerrors "cogmap/pkg/errors"
)

type countingMetrics struct {
	applied  map[string]int
	rejected map[string]int
	layouts  int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{applied: map[string]int{}, rejected: map[string]int{}}
}

func (m *countingMetrics) MutationApplied(action string) { m.applied[action]++ }
func (m *countingMetrics) MutationRejected(action, reason string) {
	m.rejected[action+"/"+reason]++
}
func (m *countingMetrics) LayoutComputed(time.Duration, int) { m.layouts++ }

func newFixture(t *testing.T, policy FocusPolicy) (*UpdateHandler, *State, *countingMetrics) {
	t.Helper()
	tree, err := aggregates.NewTree("A", "root")
	require.NoError(t, err)
	metrics := newCountingMetrics()
	h := NewUpdateHandler(services.NewLayoutEngine(services.DefaultLayoutConfig()), policy, metrics, zap.NewNop())
	st := NewState(tree, "A")
	h.Relayout(st)
	return h, st, metrics
}

func add(id, label, parent string) NodeAdded {
	return NodeAdded{ID: valueobjects.NodeID(id), Label: label, ParentID: valueobjects.NodeID(parent)}
}

func mustApply(t *testing.T, h *UpdateHandler, st *State, m Mutation) Outcome {
	t.Helper()
	out, err := h.Apply(context.Background(), st, m)
	require.NoError(t, err)
	return out
}

func TestApply_AddThenDeleteScenario(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	depth := 1

	out := mustApply(t, h, st, NodeAdded{ID: "B", Label: "child", ParentID: "A", DeclaredDepth: &depth})

	assert.True(t, out.Relayout)
	assert.True(t, out.FocusChanged)
	assert.Equal(t, 2, st.Tree.Len())
	require.Len(t, st.Tree.Edges(), 1)
	assert.Equal(t, "A-B", st.Tree.Edges()[0].ID)
	assert.Equal(t, valueobjects.NodeID("B"), st.Current)
	assert.Len(t, st.Placed, 2)

	out = mustApply(t, h, st, NodeDeleted{ID: "B"})

	assert.True(t, out.FocusChanged)
	assert.Equal(t, []valueobjects.NodeID{"B"}, out.Removed)
	assert.Equal(t, 1, st.Tree.Len())
	assert.Empty(t, st.Tree.Edges())
	assert.Equal(t, valueobjects.NodeID("A"), st.Current)
	assert.Len(t, st.Placed, 1)
}

func TestApply_AddDoesNotFollowWhenParentIsNotCurrent(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "A"))

	// Focus is on B now; a second child of A must not steal it.
	assert.Equal(t, valueobjects.NodeID("B"), st.Current)
}

func TestApply_StayPutPolicy(t *testing.T) {
	h, st, _ := newFixture(t, StayPut{})

	out := mustApply(t, h, st, add("B", "b", "A"))

	assert.False(t, out.FocusChanged)
	assert.Equal(t, valueobjects.NodeID("A"), st.Current)
}

func TestApply_RejectionsLeaveStateUntouched(t *testing.T) {
	h, st, metrics := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))

	tests := []struct {
		name  string
		m     Mutation
		check func(error) bool
	}{
		{"invalid parent", add("C", "c", "Z"), pkgerrors.IsInvalidParent},
		{"null parent", add("C", "c", ""), pkgerrors.IsInvalidParent},
		{"duplicate id", add("B", "again", "A"), pkgerrors.IsDuplicateID},
		{"delete root", NodeDeleted{ID: "A"}, pkgerrors.IsRootDeletionForbidden},
		{"delete unknown", NodeDeleted{ID: "Z"}, pkgerrors.IsNotFound},
		{"update unknown", NodeUpdated{ID: "Z", Label: "x"}, pkgerrors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := st.Tree.Records()
			current := st.Current
			placed := st.Placed

			_, err := h.Apply(context.Background(), st, tt.m)

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected %v", err)
			assert.Equal(t, records, st.Tree.Records())
			assert.Equal(t, current, st.Current)
			assert.Equal(t, placed, st.Placed)
		})
	}
	assert.Equal(t, 1, metrics.rejected["delete_node/ROOT_DELETION_FORBIDDEN"])
	assert.Equal(t, 1, metrics.applied[ActionAddNode])
}

func TestApply_DeleteAncestorOfCurrent(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "B"))
	mustApply(t, h, st, add("D", "d", "C"))
	require.Equal(t, valueobjects.NodeID("D"), st.Current)

	out := mustApply(t, h, st, NodeDeleted{ID: "B"})

	assert.Equal(t, []valueobjects.NodeID{"B", "C", "D"}, out.Removed)
	assert.Equal(t, valueobjects.NodeID("A"), st.Current)
}

func TestApply_DeleteElsewhereKeepsFocus(t *testing.T) {
	h, st, _ := newFixture(t, StayPut{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "A"))
	require.NoError(t, st.Focus("C"))

	out := mustApply(t, h, st, NodeDeleted{ID: "B"})

	assert.False(t, out.FocusChanged)
	assert.Equal(t, valueobjects.NodeID("C"), st.Current)
}

func TestApply_DeleteReturnsFocusToParent(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "B"))
	require.Equal(t, valueobjects.NodeID("C"), st.Current)

	mustApply(t, h, st, NodeDeleted{ID: "C"})

	assert.Equal(t, valueobjects.NodeID("B"), st.Current)
}

func TestApply_CascadeEchoIsIgnored(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "B"))

	mustApply(t, h, st, NodeDeleted{ID: "B"})
	out := mustApply(t, h, st, NodeDeleted{ID: "C"})

	assert.True(t, out.Echo)
	assert.False(t, out.Relayout)
	assert.Equal(t, 1, st.Tree.Len())

	// Re-adding a removed id clears the tombstone.
	mustApply(t, h, st, add("C", "c", "A"))
	mustApply(t, h, st, NodeDeleted{ID: "C"})
	_, err := h.Apply(context.Background(), st, NodeDeleted{ID: "never-seen"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestApply_TombstonesAreConsumed(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "B"))
	mustApply(t, h, st, add("D", "d", "C"))

	mustApply(t, h, st, NodeDeleted{ID: "B"})
	assert.Equal(t, 2, st.Tombstones())

	assert.True(t, mustApply(t, h, st, NodeDeleted{ID: "C"}).Echo)
	assert.True(t, mustApply(t, h, st, NodeDeleted{ID: "D"}).Echo)
	assert.Equal(t, 0, st.Tombstones())

	// Once consumed, a repeat is an unknown node again.
	for _, id := range []valueobjects.NodeID{"B", "C"} {
		_, err := h.Apply(context.Background(), st, NodeDeleted{ID: id})
		assert.True(t, pkgerrors.IsNotFound(err), "delete %s", id)
	}
}

func TestApply_UpdateDoesNotRelayout(t *testing.T) {
	h, st, metrics := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	layouts := metrics.layouts

	out := mustApply(t, h, st, NodeUpdated{ID: "B", Label: "renamed"})

	assert.False(t, out.Relayout)
	assert.Equal(t, layouts, metrics.layouts)
	node, _ := st.Tree.Node("B")
	assert.Equal(t, "renamed", node.Label())
}

func TestApply_SiblingsLaidOutSymmetrically(t *testing.T) {
	h, st, _ := newFixture(t, StayPut{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "A"))

	view := BuildView(st, 1)

	var xs []float64
	for _, n := range view.Nodes {
		if n.Depth == 1 {
			assert.Equal(t, 150.0, n.Position.Y())
			xs = append(xs, n.Position.X())
		}
	}
	require.Len(t, xs, 2)
	width := float64(services.DefaultNodeWidth + services.DefaultGap)
	assert.Equal(t, -(xs[1] + width), xs[0])
}

func TestBuildView(t *testing.T) {
	h, st, _ := newFixture(t, FollowNewChild{})
	mustApply(t, h, st, add("B", "b", "A"))
	mustApply(t, h, st, add("C", "c", "B"))
	mustApply(t, h, st, add("D", "d", "C"))
	mustApply(t, h, st, NodeUpdated{ID: "B", Label: "renamed"})

	view := BuildView(st, 7)

	assert.Equal(t, uint64(7), view.Version)
	assert.Equal(t, "A", view.RootID)
	assert.Equal(t, "D", view.CurrentID)
	assert.Equal(t, []string{"root", "renamed", "c", "d"}, view.Path)
	require.Len(t, view.Nodes, 4)
	assert.Len(t, view.Edges, 3)
	for _, n := range view.Nodes {
		assert.Equal(t, n.ID == "D", n.Current)
		assert.Equal(t, n.Depth >= DeepDepth, n.Deep)
	}
}
