package raycast

import (
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Filter selects which mesh nodes a query may hit. nil accepts every node.
type Filter func(owner *scene.Node) bool

// Hit is a ray/triangle intersection.
type Hit struct {
	Distance float32
	Point    math.Vec3
	Node     *scene.Node
}

// Raycaster answers nearest-hit and any-hit queries against one scene.
type Raycaster struct {
	root  *scene.Node
	index *Index
}

// NewRaycaster indexes the scene under root.
func NewRaycaster(root *scene.Node) *Raycaster {
	return &Raycaster{root: root, index: NewIndex(root)}
}

// Root returns the scene the raycaster was built from.
func (rc *Raycaster) Root() *scene.Node { return rc.root }

// Index returns the underlying triangle index.
func (rc *Raycaster) Index() *Index { return rc.index }

// Nearest returns the closest hit within far accepted by filter.
func (rc *Raycaster) Nearest(ray Ray, far float32, filter Filter) (Hit, bool) {
	best := Hit{Distance: far}
	found := false
	rc.index.visit(ray, far, func(tri *triangle, t float32) float32 {
		if t < best.Distance && (filter == nil || filter(tri.owner)) {
			best = Hit{Distance: t, Node: tri.owner}
			found = true
		}
		return best.Distance
	})
	if found {
		best.Point = ray.At(best.Distance)
	}
	return best, found
}

// Occluded reports whether anything accepted by filter lies within far.
// Pass math.MaxFloat32 for a ray without end; the walk stops at the scene
// bounds either way.
func (rc *Raycaster) Occluded(ray Ray, far float32, filter Filter) bool {
	hit := false
	rc.index.visit(ray, far, func(tri *triangle, _ float32) float32 {
		if filter == nil || filter(tri.owner) {
			hit = true
			return 0
		}
		return far
	})
	return hit
}

// ObjectsFilter accepts nodes in objects and, when recursive, their
// descendants.
func ObjectsFilter(objects []*scene.Node, recursive bool) Filter {
	set := make(map[*scene.Node]struct{})
	for _, o := range objects {
		if !recursive {
			set[o] = struct{}{}
			continue
		}
		o.Traverse(func(n *scene.Node) { set[n] = struct{}{} })
	}
	return func(n *scene.Node) bool {
		_, ok := set[n]
		return ok
	}
}

// ExcludeFilter is the complement of ObjectsFilter.
func ExcludeFilter(objects []*scene.Node, recursive bool) Filter {
	in := ObjectsFilter(objects, recursive)
	return func(n *scene.Node) bool { return !in(n) }
}
