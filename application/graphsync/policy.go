package graphsync

import (
	"fmt"

	"cogmap/domain/core/entities"
	"cogmap/domain/core/valueobjects"
	pkgerrors "cogmap/pkg/errors"
)

// FocusPolicy decides where the current pointer goes after an accepted
// insert. It is the only place where focus-follow behavior lives; the
// handler never moves focus on insert by itself.
type FocusPolicy interface {
	AfterInsert(current valueobjects.NodeID, inserted entities.Node) valueobjects.NodeID
}

// FollowNewChild advances focus into a node created directly below the
// current node, so the next question chains onto it.
type FollowNewChild struct{}

// AfterInsert implements FocusPolicy
func (FollowNewChild) AfterInsert(current valueobjects.NodeID, inserted entities.Node) valueobjects.NodeID {
	if !inserted.IsRoot() && inserted.ParentID() == current {
		return inserted.ID()
	}
	return current
}

// StayPut never moves focus on insert
type StayPut struct{}

// AfterInsert implements FocusPolicy
func (StayPut) AfterInsert(current valueobjects.NodeID, _ entities.Node) valueobjects.NodeID {
	return current
}

// Policy names accepted by PolicyByName
const (
	PolicyFollowChild = "follow-child"
	PolicyStay        = "stay"
)

// PolicyByName resolves a configured policy name
func PolicyByName(name string) (FocusPolicy, error) {
	switch name {
	case "", PolicyFollowChild:
		return FollowNewChild{}, nil
	case PolicyStay:
		return StayPut{}, nil
	default:
		return nil, pkgerrors.NewValidation(fmt.Sprintf("unknown focus policy %q", name))
	}
}
