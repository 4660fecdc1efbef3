package scene

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/yejunweb/3d-solar-threejs/pkg/encoding"
	vm "github.com/yejunweb/3d-solar-threejs/pkg/math"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestWorldMatrixFollowsParentChain(t *testing.T) {
	root := NewNode("root")
	root.Transform.Position = vm.Vec3{X: 10}
	child := NewNode("child")
	child.Transform.Position = vm.Vec3{Y: 2}
	root.Add(child)

	p := child.WorldPosition()
	if !near(p.X, 10) || !near(p.Y, 2) || !near(p.Z, 0) {
		t.Fatalf("WorldPosition = %+v, want (10, 2, 0)", p)
	}

	// Moving the parent is visible without any refresh call.
	root.Transform.Position = vm.Vec3{X: -5}
	p = child.WorldPosition()
	if !near(p.X, -5) {
		t.Errorf("after parent move X = %v, want -5", p.X)
	}
}

func TestAddReparents(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	c := NewNode("c")
	a.Add(c)
	b.Add(c)
	if len(a.Children) != 0 {
		t.Errorf("old parent still has %d children", len(a.Children))
	}
	if c.Parent != b || len(b.Children) != 1 {
		t.Error("child not attached to new parent")
	}
}

func TestTraversePreOrder(t *testing.T) {
	root := NewNode("r")
	a, b := NewNode("a"), NewNode("b")
	a.Add(NewNode("a1"))
	root.Add(a, b)

	var got []string
	root.Traverse(func(n *Node) { got = append(got, n.Name) })
	if strings.Join(got, ",") != "r,a,a1,b" {
		t.Errorf("order = %v", got)
	}
	if root.Find("a1") == nil || root.Find("zz") != nil {
		t.Error("Find mismatch")
	}
}

func TestWorldBounds(t *testing.T) {
	root := NewNode("root")
	root.Transform.Scale = vm.Vec3{X: 2, Y: 2, Z: 2}
	box := NewNode("box")
	box.Transform.Position = vm.Vec3{X: 1}
	box.Mesh = BoxMesh(vm.Vec3{}, vm.Vec3{X: 1, Y: 1, Z: 1})
	root.Add(box)

	b, ok := box.WorldBounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if !near(b.Min.X, 2) || !near(b.Max.X, 4) || !near(b.Max.Y, 2) {
		t.Errorf("bounds = %+v", b)
	}
	if b.Degenerate() {
		t.Error("box reported degenerate")
	}

	if _, ok := NewNode("empty").WorldBounds(); ok {
		t.Error("empty node should have no bounds")
	}
}

func TestBoundsDegenerate(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
		want bool
	}{
		{"plane", Bounds{Max: vm.Vec3{X: 1, Y: 1}}, false},
		{"line", Bounds{Max: vm.Vec3{X: 1}}, true},
		{"point", Bounds{}, true},
		{"empty", EmptyBounds(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Degenerate(); got != tt.want {
				t.Errorf("Degenerate() = %v, want %v", got, tt.want)
			}
		})
	}
	if EmptyBounds().IsFinite() {
		t.Error("empty bounds should not be finite")
	}
}

func TestMeshAppendRebases(t *testing.T) {
	m := PlaneMesh(2, 2)
	m.Append(&Mesh{Positions: []vm.Vec3{{}, {X: 1}, {Y: 1}}})
	if m.TriangleCount() != 3 {
		t.Fatalf("TriangleCount = %d, want 3", m.TriangleCount())
	}
	a, b, c := m.Triangle(2)
	if a != (vm.Vec3{}) || b != (vm.Vec3{X: 1}) || c != (vm.Vec3{Y: 1}) {
		t.Errorf("appended triangle = %v %v %v", a, b, c)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	bad := &Mesh{Positions: []vm.Vec3{{}}, Indices: []uint32{0, 0, 3}}
	if bad.Validate() == nil {
		t.Error("expected out-of-range index error")
	}
}

func TestParseColor(t *testing.T) {
	for _, s := range []string{"#fffff0", "fffff0", "0xFFFFF0"} {
		c, err := ParseColor(s)
		if err != nil || c != 0xfffff0 {
			t.Errorf("ParseColor(%q) = %v, %v", s, c, err)
		}
	}
	if _, err := ParseColor("#fff"); err == nil {
		t.Error("short colour accepted")
	}
	if RGB(1, 0, 0.5) != 0xff0080 {
		t.Errorf("RGB = %s", RGB(1, 0, 0.5))
	}
	if Color(0xfffff0).String() != "#fffff0" {
		t.Error("String mismatch")
	}
}

const sampleYAML = `
name: Scene
children:
  - name: 1A
    position: [0, 0, 0]
    children:
      - name: 1A101
        box: {min: [0, 0, 0], max: [4, 3, 4]}
        color: "#336699"
  - name: Default_light
    visible: false
  - name: ground
    plane: {width: 10, height: 10}
    rotateY: 90
`

func TestDecodeYAML(t *testing.T) {
	root, err := DecodeYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	unit := root.Find("1A101")
	if unit == nil || unit.Mesh == nil || unit.Mesh.TriangleCount() != 12 {
		t.Fatalf("unit mesh not built: %+v", unit)
	}
	if unit.Material.Color != 0x336699 {
		t.Errorf("colour = %s", unit.Material.Color)
	}
	if root.Find("Default_light").Visible {
		t.Error("visible: false ignored")
	}
	if root.Find("ground").Mesh.TriangleCount() != 2 {
		t.Error("plane not built")
	}
}

func TestDecodeLegacyEncoding(t *testing.T) {
	doc := encoding.UTF8ToGB18030("name: 花园\nchildren:\n  - name: \"8D \"\n")
	root, err := DecodeYAML(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if root.Name != "花园" {
		t.Errorf("root name = %q", root.Name)
	}
	if root.Find("8D") == nil {
		t.Error("padded child name not cleaned")
	}
}

func TestDocumentRejectsTwoShapes(t *testing.T) {
	doc := `{"name":"x","box":{"min":[0,0,0],"max":[1,1,1]},"plane":{"width":1,"height":1}}`
	if _, err := DecodeJSON(strings.NewReader(doc)); err == nil {
		t.Error("expected exclusive-shape error")
	}
}

func TestFileLoaderFormats(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	plain := write("model.yaml", []byte(sampleYAML))
	gz, err := Compress([]byte(sampleYAML), ".gz")
	if err != nil {
		t.Fatal(err)
	}
	zst, err := Compress([]byte(sampleYAML), ".zst")
	if err != nil {
		t.Fatal(err)
	}

	l := &FileLoader{Scale: 0.5}
	for _, u := range []string{
		plain,
		"file://" + filepath.ToSlash(plain),
		write("model.yaml.gz", gz),
		write("model.yml.zst", zst),
	} {
		root, err := l.Load(context.Background(), u)
		if err != nil {
			t.Errorf("Load(%s): %v", u, err)
			continue
		}
		if root.Find("1A101") == nil {
			t.Errorf("Load(%s): unit missing", u)
		}
		if !near(root.Transform.Scale.X, 0.5) {
			t.Errorf("Load(%s): scale = %v", u, root.Transform.Scale)
		}
	}
}

func TestFileLoaderErrors(t *testing.T) {
	l := &FileLoader{}
	_, err := l.Load(context.Background(), "model.obj")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := l.Load(context.Background(), "ftp://host/model.glb"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func triangleDoc() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
		Indices:    gltf.Index(idx),
	}}}}
	doc.Nodes = []*gltf.Node{{Name: "8D701", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestFromGLTF(t *testing.T) {
	root, err := FromGLTF(triangleDoc())
	if err != nil {
		t.Fatal(err)
	}
	n := root.Find("8D701")
	if n == nil || n.Mesh == nil {
		t.Fatal("unit mesh missing")
	}
	if n.Mesh.TriangleCount() != 1 {
		t.Errorf("triangles = %d, want 1", n.Mesh.TriangleCount())
	}
}

func TestFromGLTFRejectsBadAccessors(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(doc *gltf.Document)
	}{
		{"position accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION] = 7
		}},
		{"negative position accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION] = -1
		}},
		{"indices accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Indices = gltf.Index(9)
		}},
		{"nil accessor", func(doc *gltf.Document) {
			doc.Accessors[0] = nil
		}},
		{"buffer view", func(doc *gltf.Document) {
			doc.Accessors[0].BufferView = gltf.Index(5)
		}},
		{"byte offset", func(doc *gltf.Document) {
			doc.Accessors[1].ByteOffset = 1 << 20
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := triangleDoc()
			tt.mangle(doc)
			if _, err := FromGLTF(doc); err == nil {
				t.Error("expected error")
			}
		})
	}
}
