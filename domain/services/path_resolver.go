package services

import (
	"cogmap/domain/core/aggregates"
	"cogmap/domain/core/valueobjects"
)

// ResolvePath returns the labels from the root down to current.
// A root with no ancestors yields a single label.
func ResolvePath(tree *aggregates.Tree, current valueobjects.NodeID) ([]string, error) {
	chain, err := tree.AncestorsOf(current)
	if err != nil {
		return nil, err
	}

	path := make([]string, len(chain))
	for i := range chain {
		path[len(chain)-1-i] = chain[i].DisplayLabel()
	}
	return path, nil
}
