package classify

import "github.com/yejunweb/3d-solar-threejs/internal/scene"

// WarmWhite is the tint applied to every mesh for analysis display.
const WarmWhite scene.Color = 0xfffff0

// hiddenNames are helper objects that ship with the model.
var hiddenNames = map[string]bool{
	"Default_light": true,
	"Rectangle002":  true,
}

// PresentationStats counts what ApplyPresentation changed.
type PresentationStats struct {
	Hidden int
	Tinted int
}

// ApplyPresentation hides helper nodes and gives each mesh its own
// warm-white, double-sided material, remembering the original colour.
// Running it again keeps the colour remembered the first time.
func ApplyPresentation(root *scene.Node) PresentationStats {
	var st PresentationStats
	if root == nil {
		return st
	}
	root.Traverse(func(n *scene.Node) {
		if hiddenNames[n.Name] {
			n.Visible = false
			st.Hidden++
		}
		if n.Mesh == nil {
			return
		}
		var m *scene.Material
		if n.Material == nil {
			m = &scene.Material{Color: scene.White}
		} else {
			m = n.Material.Clone()
		}
		if !m.HasOrigin {
			m.OriginColor = m.Color
			m.HasOrigin = true
		}
		m.Color = WarmWhite
		m.DoubleSided = true
		n.Material = m
		st.Tinted++
	})
	return st
}

// RestoreColors puts back colours remembered by ApplyPresentation.
func RestoreColors(root *scene.Node) int {
	restored := 0
	if root == nil {
		return restored
	}
	root.Traverse(func(n *scene.Node) {
		if n.Material == nil || !n.Material.HasOrigin {
			return
		}
		n.Material.Color = n.Material.OriginColor
		n.Material.HasOrigin = false
		restored++
	})
	return restored
}
