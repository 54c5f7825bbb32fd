package graphsync

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cogmap/domain/core/valueobjects"
	"cogmap/domain/services"
	pkgerrors "cogmap/pkg/errors"
)

// Metrics receives counters from the update handler
type Metrics interface {
	MutationApplied(action string)
	MutationRejected(action string, reason string)
	LayoutComputed(elapsed time.Duration, nodes int)
}

type nopMetrics struct{}

func (nopMetrics) MutationApplied(string)            {}
func (nopMetrics) MutationRejected(string, string)   {}
func (nopMetrics) LayoutComputed(time.Duration, int) {}

// Outcome describes what an accepted mutation changed
type Outcome struct {
	Action       string
	Relayout     bool
	FocusChanged bool
	Removed      []valueobjects.NodeID
	// Echo is set when a delete named a node already removed by an earlier
	// subtree deletion; nothing changed.
	Echo bool
}

// UpdateHandler applies confirmed mutations to a State. Every mutation is
// validated against the tree before anything changes, so a rejected
// mutation leaves the state untouched.
type UpdateHandler struct {
	layout  *services.LayoutEngine
	policy  FocusPolicy
	metrics Metrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewUpdateHandler creates a handler
func NewUpdateHandler(layout *services.LayoutEngine, policy FocusPolicy, metrics Metrics, logger *zap.Logger) *UpdateHandler {
	if policy == nil {
		policy = FollowNewChild{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &UpdateHandler{
		layout:  layout,
		policy:  policy,
		metrics: metrics,
		tracer:  otel.Tracer("cogmap/graphsync"),
		logger:  logger.Named("graphsync"),
	}
}

// SetLayout swaps the layout engine; callers relayout afterwards
func (h *UpdateHandler) SetLayout(layout *services.LayoutEngine) {
	h.layout = layout
}

// Apply applies one mutation
func (h *UpdateHandler) Apply(ctx context.Context, st *State, m Mutation) (Outcome, error) {
	_, span := h.tracer.Start(ctx, "graphsync.apply", trace.WithAttributes(
		attribute.String("mutation.action", m.Action()),
	))
	defer span.End()

	var (
		out Outcome
		err error
	)
	switch mut := m.(type) {
	case NodeAdded:
		out, err = h.applyAdd(st, mut)
	case NodeDeleted:
		out, err = h.applyDelete(st, mut)
	case NodeUpdated:
		out, err = h.applyUpdate(st, mut)
	default:
		err = pkgerrors.NewMalformedMessage(fmt.Sprintf("unsupported mutation %T", m), nil)
	}
	out.Action = m.Action()

	if err != nil {
		reason := string(pkgerrors.TypeOf(err))
		h.metrics.MutationRejected(m.Action(), reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		h.logger.Warn("Mutation rejected",
			zap.String("action", m.Action()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return out, err
	}

	if out.Relayout {
		h.Relayout(st)
	}
	h.metrics.MutationApplied(m.Action())
	span.SetAttributes(attribute.Int("tree.size", st.Tree.Len()))
	return out, nil
}

// Relayout recomputes positions for the whole tree
func (h *UpdateHandler) Relayout(st *State) {
	start := time.Now()
	st.Placed = h.layout.Layout(st.Tree.Nodes())
	h.metrics.LayoutComputed(time.Since(start), len(st.Placed))
}

func (h *UpdateHandler) applyAdd(st *State, m NodeAdded) (Outcome, error) {
	node, err := st.Tree.Insert(m.ID, m.Label, m.ParentID)
	if err != nil {
		return Outcome{}, err
	}
	delete(st.removed, m.ID)

	if m.DeclaredDepth != nil && *m.DeclaredDepth != node.Depth() {
		h.logger.Warn("Declared depth disagrees with tree",
			zap.String("nodeID", m.ID.String()),
			zap.Int("declared", *m.DeclaredDepth),
			zap.Int("actual", node.Depth()),
		)
	}

	out := Outcome{Relayout: true}
	if next := h.policy.AfterInsert(st.Current, node); next != st.Current && st.Tree.Contains(next) {
		st.Current = next
		out.FocusChanged = true
	}

	h.logger.Debug("Node added",
		zap.String("nodeID", m.ID.String()),
		zap.String("parentID", m.ParentID.String()),
		zap.Int("depth", node.Depth()),
	)
	return out, nil
}

func (h *UpdateHandler) applyDelete(st *State, m NodeDeleted) (Outcome, error) {
	if !st.Tree.Contains(m.ID) && st.consumeTombstone(m.ID) {
		h.logger.Debug("Ignoring delete echo", zap.String("nodeID", m.ID.String()))
		return Outcome{Echo: true}, nil
	}

	// The parent must be captured before the subtree goes away.
	var parentID valueobjects.NodeID
	if n, ok := st.Tree.Node(m.ID); ok {
		parentID = n.ParentID()
	}

	removed, err := st.Tree.RemoveSubtree(m.ID)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Relayout: true, Removed: removed}
	for _, id := range removed {
		// The named node's own frame is this one; only descendants echo.
		if id != m.ID {
			st.removed[id] = struct{}{}
		}
		if id == st.Current {
			out.FocusChanged = true
		}
	}
	if out.FocusChanged {
		if st.Tree.Contains(parentID) {
			st.Current = parentID
		} else {
			st.Current = st.Tree.RootID()
		}
	}

	h.logger.Debug("Subtree removed",
		zap.String("nodeID", m.ID.String()),
		zap.Int("removed", len(removed)),
	)
	return out, nil
}

func (h *UpdateHandler) applyUpdate(st *State, m NodeUpdated) (Outcome, error) {
	if err := st.Tree.Relabel(m.ID, m.Label); err != nil {
		return Outcome{}, err
	}
	h.logger.Debug("Node relabeled", zap.String("nodeID", m.ID.String()))
	return Outcome{}, nil
}
