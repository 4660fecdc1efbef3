package analysis

import "github.com/yejunweb/3d-solar-threejs/pkg/math"

// FanMesh is a triangle fan: one center vertex followed by a fixed number
// of edge vertices. Only the first Valid edges hold data for the current
// unit; the rest is stale buffer.
type FanMesh struct {
	positions []math.Vec3
	valid     int
}

// NewFanMesh allocates a fan for the given segment count (segments+1
// edge vertices).
func NewFanMesh(segments int) *FanMesh {
	if segments < 1 {
		segments = 1
	}
	return &FanMesh{positions: make([]math.Vec3, segments+2)}
}

// Reset starts a new fan around center.
func (f *FanMesh) Reset(center math.Vec3) {
	f.positions[0] = center
	f.valid = 0
}

// SetEdge writes edge vertex i. Edges must be written in order.
func (f *FanMesh) SetEdge(i int, p math.Vec3) {
	f.positions[i+1] = p
	if i+1 > f.valid {
		f.valid = i + 1
	}
}

// Center returns the fan center.
func (f *FanMesh) Center() math.Vec3 { return f.positions[0] }

// Edges returns the written edge vertices.
func (f *FanMesh) Edges() []math.Vec3 { return f.positions[1 : 1+f.valid] }

// Valid returns the number of written edge vertices.
func (f *FanMesh) Valid() int { return f.valid }

// Capacity returns the fixed edge vertex count.
func (f *FanMesh) Capacity() int { return len(f.positions) - 1 }

// Area sums ½|(e[i]-c)×(e[i+1]-c)| over consecutive written edges.
func (f *FanMesh) Area() float64 {
	c := f.positions[0]
	var sum float64
	for i := 1; i < f.valid; i++ {
		a := f.positions[i].Sub(c)
		b := f.positions[i+1].Sub(c)
		sum += 0.5 * float64(a.Cross(b).Length())
	}
	return sum
}

// Clone returns an independent copy.
func (f *FanMesh) Clone() *FanMesh {
	out := &FanMesh{positions: make([]math.Vec3, len(f.positions)), valid: f.valid}
	copy(out.positions, f.positions)
	return out
}
