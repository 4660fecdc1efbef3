package solar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	vm "github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Direction converts a sun position (radians, azimuth measured from south
// towards west) to a unit vector in the scene frame, +Y up. The polar
// angle is the zenith distance and the azimuthal angle is -azimuth.
func Direction(altitude, azimuth float64) vm.Vec3 {
	phi := math.Pi/2 - altitude
	theta := -azimuth

	v := r3.Unit(r3.Vec{
		X: math.Sin(phi) * math.Sin(theta),
		Y: math.Cos(phi),
		Z: math.Sin(phi) * math.Cos(theta),
	})
	return vm.Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
