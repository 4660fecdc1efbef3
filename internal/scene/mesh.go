package scene

import (
	"fmt"

	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Mesh is local-space triangle geometry. Indices holds three entries per
// triangle; when it is nil, consecutive position triples form triangles.
type Mesh struct {
	Positions []math.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m.Indices != nil {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Triangle returns the local-space corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c math.Vec3) {
	if m.Indices != nil {
		return m.Positions[m.Indices[3*i]], m.Positions[m.Indices[3*i+1]], m.Positions[m.Indices[3*i+2]]
	}
	return m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]
}

// Validate checks index bounds and triangle-list shape.
func (m *Mesh) Validate() error {
	if m.Indices == nil {
		if len(m.Positions)%3 != 0 {
			return fmt.Errorf("non-indexed mesh has %d positions, not a multiple of 3", len(m.Positions))
		}
		return nil
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh has %d indices, not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("index %d at %d out of range (%d positions)", idx, i, len(m.Positions))
		}
	}
	return nil
}

// Append merges other into m, rebasing its indices.
func (m *Mesh) Append(other *Mesh) {
	base := uint32(len(m.Positions))
	if m.Indices == nil && len(m.Positions) > 0 {
		m.Indices = sequence(len(m.Positions))
	}
	m.Positions = append(m.Positions, other.Positions...)
	src := other.Indices
	if src == nil {
		src = sequence(len(other.Positions))
	}
	for _, idx := range src {
		m.Indices = append(m.Indices, base+idx)
	}
}

func sequence(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
