// Package scene holds the static scene graph the analyzers read: named
// nodes with transforms, optional triangle meshes and materials, plus the
// loaders that build it from model files.
package scene

import (
	"github.com/google/uuid"

	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Transform is a node's local transform. When Matrix is set it takes
// precedence over the position/rotation/scale triple.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
	Matrix   *math.Mat4
}

// IdentityTransform returns a transform with no translation, rotation or scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
	}
}

// Local returns the local transform matrix.
func (t Transform) Local() math.Mat4 {
	if t.Matrix != nil {
		return *t.Matrix
	}
	return math.Compose(t.Position, t.Rotation, t.Scale)
}

// Node is one element of the scene graph.
type Node struct {
	ID        string
	Name      string
	Transform Transform
	Mesh      *Mesh
	Material  *Material
	Visible   bool

	Parent   *Node
	Children []*Node
}

// NewNode creates a visible node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		ID:        uuid.NewString(),
		Name:      name,
		Transform: IdentityTransform(),
		Visible:   true,
	}
}

// Add attaches children to n, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.remove(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

func (n *Node) remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// Traverse visits n and all descendants depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// WorldMatrix returns the node's transform composed with every ancestor's.
// It is computed from the parent chain on each call, so it never goes stale.
func (n *Node) WorldMatrix() math.Mat4 {
	local := n.Transform.Local()
	if n.Parent == nil {
		return local
	}
	return n.Parent.WorldMatrix().Mul(local)
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() math.Vec3 {
	return n.WorldMatrix().Translation()
}

// HasGeometry reports whether n or any descendant carries triangles.
func (n *Node) HasGeometry() bool {
	found := false
	n.Traverse(func(c *Node) {
		if c.Mesh != nil && c.Mesh.TriangleCount() > 0 {
			found = true
		}
	})
	return found
}

// WorldBounds returns the world-space box enclosing every mesh vertex in the
// subtree rooted at n. ok is false when the subtree has no vertices.
func (n *Node) WorldBounds() (b Bounds, ok bool) {
	b = EmptyBounds()
	n.walkWorld(n.parentWorld(), func(c *Node, world math.Mat4) {
		if c.Mesh == nil {
			return
		}
		for _, p := range c.Mesh.Positions {
			b = b.ExpandPoint(world.TransformPoint(p))
			ok = true
		}
	})
	return b, ok
}

// WalkWorld visits the subtree with each node's world matrix, computing
// every matrix once.
func (n *Node) WalkWorld(fn func(c *Node, world math.Mat4)) {
	n.walkWorld(n.parentWorld(), fn)
}

func (n *Node) walkWorld(parent math.Mat4, fn func(*Node, math.Mat4)) {
	world := parent.Mul(n.Transform.Local())
	fn(n, world)
	for _, c := range n.Children {
		c.walkWorld(world, fn)
	}
}

func (n *Node) parentWorld() math.Mat4 {
	if n.Parent == nil {
		return math.Identity()
	}
	return n.Parent.WorldMatrix()
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}
