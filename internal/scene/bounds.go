package scene

import (
	gomath "math"

	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyBounds returns an inverted box that any point expands.
func EmptyBounds() Bounds {
	inf := float32(gomath.Inf(1))
	return Bounds{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// ExpandPoint returns the box grown to contain p.
func (b Bounds) ExpandPoint(p math.Vec3) Bounds {
	return Bounds{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Lerp(b.Max, 0.5)
}

// Size returns the extent along each axis.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// IsFinite reports whether both corners are finite.
func (b Bounds) IsFinite() bool {
	return b.Min.IsFinite() && b.Max.IsFinite()
}

// FlatAxes counts the axes along which the box has no extent.
func (b Bounds) FlatAxes() int {
	s := b.Size()
	n := 0
	for _, d := range [3]float32{s.X, s.Y, s.Z} {
		if d <= 0 {
			n++
		}
	}
	return n
}

// Degenerate reports whether the box spans fewer than two axes.
func (b Bounds) Degenerate() bool {
	return b.FlatAxes() > 1
}
