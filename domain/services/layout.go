package services

import (
	"fmt"

	"cogmap/domain/core/entities"
	"cogmap/domain/core/valueobjects"
	pkgerrors "cogmap/pkg/errors"
)

// Default spacing of the layered layout, in presentation units
const (
	DefaultLevelHeight = 150
	DefaultNodeWidth   = 200
	DefaultGap         = 50
)

// LayoutConfig holds the spacing constants of the layered layout
type LayoutConfig struct {
	LevelHeight float64
	NodeWidth   float64
	Gap         float64
}

// DefaultLayoutConfig returns the stock spacing
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		LevelHeight: DefaultLevelHeight,
		NodeWidth:   DefaultNodeWidth,
		Gap:         DefaultGap,
	}
}

// Validate checks that every spacing constant is positive
func (c LayoutConfig) Validate() error {
	if c.LevelHeight <= 0 || c.NodeWidth <= 0 || c.Gap < 0 {
		return pkgerrors.NewValidation(fmt.Sprintf(
			"layout spacing must be positive (levelHeight=%v nodeWidth=%v gap=%v)",
			c.LevelHeight, c.NodeWidth, c.Gap))
	}
	return nil
}

// PlacedNode pairs a node with its computed position
type PlacedNode struct {
	Node     entities.Node
	Position valueobjects.Position
}

// LayoutEngine places nodes on horizontal rows, one row per depth.
//
// Within a row nodes keep their input order, so adding a node never moves
// earlier siblings relative to each other. Each row of k nodes is centered
// on x = 0, starting at -(k*(nodeWidth+gap))/2.
type LayoutEngine struct {
	config LayoutConfig
}

// NewLayoutEngine creates an engine; invalid spacing falls back to defaults
func NewLayoutEngine(config LayoutConfig) *LayoutEngine {
	if config.Validate() != nil {
		config = DefaultLayoutConfig()
	}
	return &LayoutEngine{config: config}
}

// Config returns the spacing in use
func (e *LayoutEngine) Config() LayoutConfig {
	return e.config
}

// Layout computes positions for the whole node set. It is a pure function
// of the ids, depths and order of nodes.
func (e *LayoutEngine) Layout(nodes []entities.Node) []PlacedNode {
	rowSize := make(map[int]int)
	for i := range nodes {
		rowSize[nodes[i].Depth()]++
	}

	step := e.config.NodeWidth + e.config.Gap
	slot := make(map[int]int, len(rowSize))
	placed := make([]PlacedNode, 0, len(nodes))
	for i := range nodes {
		depth := nodes[i].Depth()
		startX := -(float64(rowSize[depth]) * step) / 2
		x := startX + float64(slot[depth])*step
		slot[depth]++

		placed = append(placed, PlacedNode{
			Node:     nodes[i],
			Position: valueobjects.NewPosition(x, float64(depth)*e.config.LevelHeight),
		})
	}
	return placed
}
