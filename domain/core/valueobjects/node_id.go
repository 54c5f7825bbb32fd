package valueobjects

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "cogmap/pkg/errors"
)

// NodeID identifies a node in the exploration tree. Ids are opaque strings
// chosen by the mutation authority; the root uses a fixed literal.
type NodeID string

// NewNodeID mints a random NodeID
func NewNodeID() NodeID {
	return NodeID(uuid.New().String())
}

// NewNodeIDFromString validates and wraps an id received from the wire
func NewNodeIDFromString(s string) (NodeID, error) {
	if strings.TrimSpace(s) == "" {
		return "", pkgerrors.NewValidation("node ID cannot be empty")
	}
	return NodeID(s), nil
}

// String returns the string representation
func (id NodeID) String() string {
	return string(id)
}

// IsZero reports whether the id is unset
func (id NodeID) IsZero() bool {
	return id == ""
}

// Equals checks if two ids are equal
func (id NodeID) Equals(other NodeID) bool {
	return id == other
}
