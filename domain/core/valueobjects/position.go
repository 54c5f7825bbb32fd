package valueobjects

import (
	"encoding/json"
	"math"
)

// Position is a value object holding the 2D coordinates of a laid out node
type Position struct {
	x float64
	y float64
}

// NewPosition creates a position
func NewPosition(x, y float64) Position {
	return Position{x: x, y: y}
}

// X returns the X coordinate
func (p Position) X() float64 {
	return p.x
}

// Y returns the Y coordinate
func (p Position) Y() float64 {
	return p.y
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	const epsilon = 1e-9
	return math.Abs(p.x-other.x) < epsilon &&
		math.Abs(p.y-other.y) < epsilon
}

// MarshalJSON renders the position as {"x":..,"y":..}
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{p.x, p.y})
}
