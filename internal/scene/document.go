package scene

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yejunweb/3d-solar-threejs/pkg/encoding"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Document is the plain-text scene format: a tree of named nodes with
// transforms and inline geometry. It is read from YAML or JSON.
type Document struct {
	Name     string         `yaml:"name" json:"name"`
	Position *[3]float32    `yaml:"position,omitempty" json:"position,omitempty"`
	Rotation *[4]float32    `yaml:"rotation,omitempty" json:"rotation,omitempty"` // quaternion x, y, z, w
	RotateY  float32        `yaml:"rotateY,omitempty" json:"rotateY,omitempty"`   // degrees, applied when Rotation is unset
	Scale    *[3]float32    `yaml:"scale,omitempty" json:"scale,omitempty"`
	Visible  *bool          `yaml:"visible,omitempty" json:"visible,omitempty"`
	Color    string         `yaml:"color,omitempty" json:"color,omitempty"`
	Mesh     *DocumentMesh  `yaml:"mesh,omitempty" json:"mesh,omitempty"`
	Box      *DocumentBox   `yaml:"box,omitempty" json:"box,omitempty"`
	Plane    *DocumentPlane `yaml:"plane,omitempty" json:"plane,omitempty"`
	Children []Document     `yaml:"children,omitempty" json:"children,omitempty"`
}

// DocumentMesh is explicit triangle geometry.
type DocumentMesh struct {
	Positions [][3]float32 `yaml:"positions" json:"positions"`
	Indices   []uint32     `yaml:"indices,omitempty" json:"indices,omitempty"`
}

// DocumentBox is an axis-aligned box between two local corners.
type DocumentBox struct {
	Min [3]float32 `yaml:"min" json:"min"`
	Max [3]float32 `yaml:"max" json:"max"`
}

// DocumentPlane is a rectangle in the local XY plane.
type DocumentPlane struct {
	Width  float32 `yaml:"width" json:"width"`
	Height float32 `yaml:"height" json:"height"`
}

// DecodeYAML reads a YAML scene document.
func DecodeYAML(r io.Reader) (*Node, error) {
	data, err := readText(r)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml scene: %w", err)
	}
	return doc.Build()
}

// DecodeJSON reads a JSON scene document.
func DecodeJSON(r io.Reader) (*Node, error) {
	data, err := readText(r)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json scene: %w", err)
	}
	return doc.Build()
}

// readText reads a whole document, converting GB18030 exports to UTF-8.
func readText(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	data, err = encoding.ToUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("decode scene text: %w", err)
	}
	return data, nil
}

// Build converts the document into a scene graph.
func (d Document) Build() (*Node, error) {
	n := NewNode(encoding.CleanName(d.Name))
	if d.Position != nil {
		n.Transform.Position = math.Vec3FromArray(*d.Position)
	}
	switch {
	case d.Rotation != nil:
		r := *d.Rotation
		n.Transform.Rotation = math.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]}.Normalize()
	case d.RotateY != 0:
		n.Transform.Rotation = math.QuatFromAxisAngle(math.Up, d.RotateY*degToRad)
	}
	if d.Scale != nil {
		n.Transform.Scale = math.Vec3FromArray(*d.Scale)
	}
	if d.Visible != nil {
		n.Visible = *d.Visible
	}

	shapes := 0
	if d.Mesh != nil {
		shapes++
		m := &Mesh{Indices: d.Mesh.Indices}
		for _, p := range d.Mesh.Positions {
			m.Positions = append(m.Positions, math.Vec3FromArray(p))
		}
		n.Mesh = m
	}
	if d.Box != nil {
		shapes++
		n.Mesh = BoxMesh(math.Vec3FromArray(d.Box.Min), math.Vec3FromArray(d.Box.Max))
	}
	if d.Plane != nil {
		shapes++
		n.Mesh = PlaneMesh(d.Plane.Width, d.Plane.Height)
	}
	if shapes > 1 {
		return nil, fmt.Errorf("node %q: mesh, box and plane are exclusive", d.Name)
	}
	if n.Mesh != nil {
		if err := n.Mesh.Validate(); err != nil {
			return nil, fmt.Errorf("node %q: %w", d.Name, err)
		}
		n.Material = &Material{Color: White}
	}
	if d.Color != "" {
		c, err := ParseColor(d.Color)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", d.Name, err)
		}
		if n.Material == nil {
			n.Material = &Material{}
		}
		n.Material.Color = c
	}

	for _, cd := range d.Children {
		child, err := cd.Build()
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

const degToRad = 3.14159265358979323846 / 180
