package analysis

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// FanPolygon projects a fan onto the ground plane (x, z) as a closed ring
// running center, edges, center.
func FanPolygon(f *FanMesh) orb.Polygon {
	ring := orb.Ring{groundPoint(f.Center())}
	for _, e := range f.Edges() {
		ring = append(ring, groundPoint(e))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

func groundPoint(v math.Vec3) orb.Point {
	p := v.XZ()
	return orb.Point{float64(p.X), float64(p.Y)}
}

// PlanarArea is the ground-plane area of the fan polygon. For a fan swept
// in angle order it matches FanMesh.Area.
func PlanarArea(f *FanMesh) float64 {
	return planar.Area(FanPolygon(f))
}

// FansGeoJSON converts retained fans to a feature collection with unit and
// area properties.
func FansGeoJSON(fans []Fan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, fan := range fans {
		feat := geojson.NewFeature(FanPolygon(fan.Mesh))
		feat.Properties["unit"] = fan.Unit
		feat.Properties["area"] = PlanarArea(fan.Mesh)
		feat.Properties["segments"] = fan.Mesh.Capacity() - 1
		fc.Append(feat)
	}
	return fc
}
