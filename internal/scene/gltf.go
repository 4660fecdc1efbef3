package scene

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/yejunweb/3d-solar-threejs/pkg/encoding"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// OpenGLTF loads a .gltf or .glb file from disk. External buffers are
// resolved relative to the file.
func OpenGLTF(path string) (*Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", path, err)
	}
	return FromGLTF(doc)
}

// DecodeGLTF reads a self-contained glTF stream (binary .glb or .gltf with
// embedded buffers).
func DecodeGLTF(r io.Reader) (*Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return FromGLTF(doc)
}

// FromGLTF converts the default scene of doc into a scene graph. Triangle
// primitives of a mesh are merged into one Mesh; the first primitive's
// material supplies the colour.
func FromGLTF(doc *gltf.Document) (*Node, error) {
	root := NewNode("Scene")
	if len(doc.Scenes) == 0 {
		return root, nil
	}
	si := 0
	if doc.Scene != nil {
		si = *doc.Scene
	}
	if si < 0 || si >= len(doc.Scenes) {
		return nil, fmt.Errorf("gltf scene index %d out of range", si)
	}
	sc := doc.Scenes[si]
	if sc.Name != "" {
		root.Name = sc.Name
	}
	for _, ni := range sc.Nodes {
		child, err := gltfNode(doc, ni, 0)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}
	return root, nil
}

const maxGLTFDepth = 256

func gltfNode(doc *gltf.Document, index, depth int) (*Node, error) {
	if index < 0 || index >= len(doc.Nodes) {
		return nil, fmt.Errorf("gltf node index %d out of range", index)
	}
	if depth > maxGLTFDepth {
		return nil, fmt.Errorf("gltf node hierarchy deeper than %d", maxGLTFDepth)
	}
	src := doc.Nodes[index]
	n := NewNode(encoding.CleanName(src.Name))

	if src.Matrix != [16]float64{} && src.Matrix != gltfIdentity {
		var m math.Mat4
		for i, v := range src.Matrix {
			m[i] = float32(v)
		}
		n.Transform.Matrix = &m
	} else {
		t := src.TranslationOrDefault()
		r := src.RotationOrDefault()
		s := src.ScaleOrDefault()
		n.Transform.Position = math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])}
		n.Transform.Rotation = math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
		n.Transform.Scale = math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])}
	}

	if src.Mesh != nil {
		mesh, mat, err := gltfMesh(doc, *src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		n.Mesh = mesh
		n.Material = mat
	}

	for _, ci := range src.Children {
		child, err := gltfNode(doc, ci, depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

var gltfIdentity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func gltfMesh(doc *gltf.Document, index int) (*Mesh, *Material, error) {
	if index < 0 || index >= len(doc.Meshes) {
		return nil, nil, fmt.Errorf("gltf mesh index %d out of range", index)
	}
	out := &Mesh{Indices: []uint32{}}
	var mat *Material
	for pi, prim := range doc.Meshes[index].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		pos, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acr, err := gltfAccessor(doc, pos)
		if err != nil {
			return nil, nil, fmt.Errorf("primitive %d positions: %w", pi, err)
		}
		raw, err := modeler.ReadPosition(doc, acr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("primitive %d positions: %w", pi, err)
		}
		part := &Mesh{Positions: make([]math.Vec3, len(raw))}
		for i, p := range raw {
			part.Positions[i] = math.Vec3FromArray(p)
		}
		if prim.Indices != nil {
			acr, err := gltfAccessor(doc, *prim.Indices)
			if err != nil {
				return nil, nil, fmt.Errorf("primitive %d indices: %w", pi, err)
			}
			idx, err := modeler.ReadIndices(doc, acr, nil)
			if err != nil {
				return nil, nil, fmt.Errorf("primitive %d indices: %w", pi, err)
			}
			part.Indices = idx
		}
		if err := part.Validate(); err != nil {
			return nil, nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		out.Append(part)
		if mat == nil {
			mat = gltfMaterial(doc, prim.Material)
		}
	}
	if mat == nil {
		mat = &Material{Color: White}
	}
	return out, mat, nil
}

// gltfAccessor looks up an accessor and checks the references modeler
// would otherwise index blindly.
func gltfAccessor(doc *gltf.Document, index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) || doc.Accessors[index] == nil {
		return nil, fmt.Errorf("gltf accessor index %d out of range", index)
	}
	acr := doc.Accessors[index]
	if acr.BufferView == nil {
		return acr, nil
	}
	bv := *acr.BufferView
	if bv < 0 || bv >= len(doc.BufferViews) || doc.BufferViews[bv] == nil {
		return nil, fmt.Errorf("gltf accessor %d: buffer view %d out of range", index, bv)
	}
	if acr.ByteOffset < 0 || acr.ByteOffset > doc.BufferViews[bv].ByteLength {
		return nil, fmt.Errorf("gltf accessor %d: byte offset %d past buffer view", index, acr.ByteOffset)
	}
	return acr, nil
}

func gltfMaterial(doc *gltf.Document, index *int) *Material {
	m := &Material{Color: White}
	if index == nil || *index < 0 || *index >= len(doc.Materials) {
		return m
	}
	src := doc.Materials[*index]
	m.DoubleSided = src.DoubleSided
	if pbr := src.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		c := *pbr.BaseColorFactor
		m.Color = RGB(c[0], c[1], c[2])
	}
	return m
}
