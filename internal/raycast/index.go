package raycast

import (
	"github.com/dhconnelly/rtreego"

	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

const (
	treeMinChildren = 25
	treeMaxChildren = 50

	// Flat triangles get this much thickness so their boxes have volume.
	boxPad = 1e-3
)

// triangle is one world-space triangle tagged with its owning node.
type triangle struct {
	a, b, c math.Vec3
	owner   *scene.Node
	rect    rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (t *triangle) Bounds() rtreego.Rect {
	return t.rect
}

// Index is a bulk-loaded R-tree over every visible world-space triangle in
// a scene. It is a snapshot: geometry edits after construction are not seen.
type Index struct {
	tree   *rtreego.Rtree
	bounds scene.Bounds
	count  int
	step   float32
}

// NewIndex snapshots the triangles under root. Hidden nodes, and everything
// below them, are left out.
func NewIndex(root *scene.Node) *Index {
	var objs []rtreego.Spatial
	bounds := scene.EmptyBounds()

	var walk func(n *scene.Node, parent math.Mat4)
	walk = func(n *scene.Node, parent math.Mat4) {
		if !n.Visible {
			return
		}
		world := parent.Mul(n.Transform.Local())
		if n.Mesh != nil {
			for i := 0; i < n.Mesh.TriangleCount(); i++ {
				a, b, c := n.Mesh.Triangle(i)
				tri := &triangle{
					a:     world.TransformPoint(a),
					b:     world.TransformPoint(b),
					c:     world.TransformPoint(c),
					owner: n,
				}
				lo := tri.a.Min(tri.b).Min(tri.c)
				hi := tri.a.Max(tri.b).Max(tri.c)
				if !lo.IsFinite() || !hi.IsFinite() {
					continue
				}
				tri.rect = padRect(lo, hi)
				bounds = bounds.ExpandPoint(lo).ExpandPoint(hi)
				objs = append(objs, tri)
			}
		}
		for _, c := range n.Children {
			walk(c, world)
		}
	}
	if root != nil {
		parent := math.Identity()
		if root.Parent != nil {
			parent = root.Parent.WorldMatrix()
		}
		walk(root, parent)
	}

	idx := &Index{
		tree:   rtreego.NewTree(3, treeMinChildren, treeMaxChildren, objs...),
		bounds: bounds,
		count:  len(objs),
	}
	if len(objs) > 0 {
		idx.bounds = scene.Bounds{
			Min: bounds.Min.Sub(math.Vec3{X: boxPad, Y: boxPad, Z: boxPad}),
			Max: bounds.Max.Add(math.Vec3{X: boxPad, Y: boxPad, Z: boxPad}),
		}
		idx.step = idx.bounds.Size().Length() / marchSegments
	}
	return idx
}

// marchSegments is how many pieces a ray crossing the whole scene is cut
// into for broad-phase queries.
const marchSegments = 16

// Len returns the number of indexed triangles.
func (x *Index) Len() int { return x.count }

// Bounds returns the padded box around all indexed triangles.
func (x *Index) Bounds() scene.Bounds { return x.bounds }

func padRect(lo, hi math.Vec3) rtreego.Rect {
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{float64(lo.X) - boxPad, float64(lo.Y) - boxPad, float64(lo.Z) - boxPad},
		rtreego.Point{float64(hi.X) + boxPad, float64(hi.Y) + boxPad, float64(hi.Z) + boxPad},
	)
	return r
}

// visit calls fn with every triangle hit by ray in (Epsilon, far], segment
// by segment from the origin outward. fn returns the current cutoff: once a
// segment ends beyond the cutoff the walk stops. Triangles spanning several
// segments are tested once.
func (x *Index) visit(ray Ray, far float32, fn func(tri *triangle, t float32) (cutoff float32)) {
	if x.count == 0 {
		return
	}
	t0, t1, ok := ray.ClipAABB(x.bounds, 0, far)
	if !ok {
		return
	}
	seen := make(map[*triangle]struct{})
	cutoff := far
	for start := t0; start <= t1; start += x.step {
		end := start + x.step
		if end > t1 {
			end = t1
		}
		p, q := ray.At(start), ray.At(end)
		for _, s := range x.tree.SearchIntersect(padRect(p.Min(q), p.Max(q))) {
			tri := s.(*triangle)
			if _, dup := seen[tri]; dup {
				continue
			}
			seen[tri] = struct{}{}
			if t, hit := ray.IntersectTriangle(tri.a, tri.b, tri.c); hit && t <= far {
				if cutoff = fn(tri, t); cutoff <= 0 {
					return
				}
			}
		}
		if end >= cutoff || end >= t1 {
			return
		}
	}
}
