// Package model defines the gateway's in-memory domain types: the shapes
// shared by the domain caches, the spawn-zone engine and the event pipeline.
package model

import (
	"fmt"
	"math"
)

// Position is a world coordinate triple plus a Z-axis rotation in degrees.
type Position struct {
	X    float32
	Y    float32
	Z    float32
	RotZ float32
}

func (p Position) String() string {
	return fmt.Sprintf("(%.1f,%.1f,%.1f,rot=%.1f)", p.X, p.Y, p.Z, p.RotZ)
}

// DistanceXY returns the planar (x,y) Euclidean distance between two positions.
func (p Position) DistanceXY(o Position) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return math.Hypot(dx, dy)
}
