// Package raycast intersects rays with the triangles of a scene graph.
package raycast

import (
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Epsilon is the minimum hit distance; hits closer than this are treated as
// the ray's own surface.
const Epsilon = 1e-4

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay builds a ray with a normalized direction.
func NewRay(origin, direction math.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ClipAABB returns the parameter interval where the ray is inside box,
// limited to [tmin, tmax]. ok is false when the interval is empty.
func (r Ray) ClipAABB(box scene.Bounds, tmin, tmax float32) (t0, t1 float32, ok bool) {
	o := r.Origin.Array()
	d := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			// Parallel to this slab
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d[axis]
		near := (lo[axis] - o[axis]) * inv
		far := (hi[axis] - o[axis]) * inv
		if near > far {
			near, far = far, near
		}
		if near > tmin {
			tmin = near
		}
		if far < tmax {
			tmax = far
		}
		if tmax < tmin {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

// IntersectTriangle returns the distance to the triangle abc using the
// Möller–Trumbore test. Both faces count; hits at t <= Epsilon are ignored.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	const det = 1e-8

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	d := e1.Dot(p)
	if d > -det && d < det {
		return 0, false
	}
	inv := 1 / d
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t <= Epsilon {
		return 0, false
	}
	return t, true
}
