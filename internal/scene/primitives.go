package scene

import "github.com/yejunweb/3d-solar-threejs/pkg/math"

// BoxMesh builds a closed box between two corners, 12 triangles.
func BoxMesh(minC, maxC math.Vec3) *Mesh {
	lo, hi := minC.Min(maxC), minC.Max(maxC)
	p := []math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	return &Mesh{
		Positions: p,
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // -z
			4, 5, 6, 4, 6, 7, // +z
			0, 1, 5, 0, 5, 4, // -y
			3, 7, 6, 3, 6, 2, // +y
			0, 4, 7, 0, 7, 3, // -x
			1, 2, 6, 1, 6, 5, // +x
		},
	}
}

// PlaneMesh builds a width x height rectangle in the XY plane centred on the
// origin, facing +Z. Facade panels are modelled this way.
func PlaneMesh(width, height float32) *Mesh {
	w, h := width/2, height/2
	return &Mesh{
		Positions: []math.Vec3{
			{X: -w, Y: -h}, {X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}
