package events

import (
	"time"

	"cogmap/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

const (
	TypeNodeInserted   = "tree.node_inserted"
	TypeSubtreeRemoved = "tree.subtree_removed"
	TypeNodeRelabeled  = "tree.node_relabeled"
)

// NodeInserted is raised when a node joins the tree
type NodeInserted struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"node_id"`
	ParentID valueobjects.NodeID `json:"parent_id"`
	Depth    int                 `json:"depth"`
}

// NewNodeInserted creates a NodeInserted event
func NewNodeInserted(treeID string, nodeID, parentID valueobjects.NodeID, depth int, at time.Time) NodeInserted {
	return NodeInserted{
		BaseEvent: BaseEvent{AggregateID: treeID, EventType: TypeNodeInserted, Timestamp: at},
		NodeID:    nodeID,
		ParentID:  parentID,
		Depth:     depth,
	}
}

// SubtreeRemoved is raised when a node and all its descendants leave the tree
type SubtreeRemoved struct {
	BaseEvent
	NodeID  valueobjects.NodeID   `json:"node_id"`
	Removed []valueobjects.NodeID `json:"removed"`
}

// NewSubtreeRemoved creates a SubtreeRemoved event
func NewSubtreeRemoved(treeID string, nodeID valueobjects.NodeID, removed []valueobjects.NodeID, at time.Time) SubtreeRemoved {
	return SubtreeRemoved{
		BaseEvent: BaseEvent{AggregateID: treeID, EventType: TypeSubtreeRemoved, Timestamp: at},
		NodeID:    nodeID,
		Removed:   removed,
	}
}

// NodeRelabeled is raised when a node's label changes
type NodeRelabeled struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"node_id"`
	OldLabel string              `json:"old_label"`
	NewLabel string              `json:"new_label"`
}

// NewNodeRelabeled creates a NodeRelabeled event
func NewNodeRelabeled(treeID string, nodeID valueobjects.NodeID, oldLabel, newLabel string, at time.Time) NodeRelabeled {
	return NodeRelabeled{
		BaseEvent: BaseEvent{AggregateID: treeID, EventType: TypeNodeRelabeled, Timestamp: at},
		NodeID:    nodeID,
		OldLabel:  oldLabel,
		NewLabel:  newLabel,
	}
}
