// Package classify sorts a loaded scene graph into buildings and housing
// units by node name.
package classify

import (
	"regexp"
	"strconv"

	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

var (
	buildingPattern = regexp.MustCompile(`^\d{1,2}[A-Z]$`)
	unitPattern     = regexp.MustCompile(`^\d{1,2}[A-Z]\d{3}$`)
	leadingNumber   = regexp.MustCompile(`^\d{1,2}`)
)

// LabelSuffix follows the building number in display labels.
const LabelSuffix = "栋"

// IsBuildingName reports whether name is a building name such as "8D".
func IsBuildingName(name string) bool { return buildingPattern.MatchString(name) }

// IsUnitName reports whether name is a housing unit name such as "8D701".
func IsUnitName(name string) bool { return unitPattern.MatchString(name) }

// Building is a named building group.
type Building struct {
	ID    string
	Index int
	Name  string
	Label string
	// Position is a copy of the node's local position at classification time.
	Position math.Vec3
}

// HousingUnit is one residential suite.
type HousingUnit struct {
	Name string
	Node *scene.Node
	// Bounds is the world box of the unit's geometry; valid when HasBounds.
	Bounds    scene.Bounds
	HasBounds bool
	Position  math.Vec3
}

// Catalog is the classification of one scene graph, in traversal order.
type Catalog struct {
	Buildings []Building
	Units     []HousingUnit
}

// Classify walks root once, pre-order, and returns every building and
// housing unit. The scene is not modified.
func Classify(root *scene.Node) Catalog {
	var c Catalog
	if root == nil {
		return c
	}
	root.Traverse(func(n *scene.Node) {
		switch {
		case IsBuildingName(n.Name):
			idx, _ := strconv.Atoi(leadingNumber.FindString(n.Name))
			c.Buildings = append(c.Buildings, Building{
				ID:       n.ID,
				Index:    idx,
				Name:     n.Name,
				Label:    strconv.Itoa(idx) + LabelSuffix,
				Position: n.Transform.Position,
			})
		case IsUnitName(n.Name):
			u := HousingUnit{
				Name:     n.Name,
				Node:     n,
				Position: n.WorldPosition(),
			}
			u.Bounds, u.HasBounds = n.WorldBounds()
			c.Units = append(c.Units, u)
		}
	})
	return c
}

// Unit returns the housing unit with the given name.
func (c Catalog) Unit(name string) (HousingUnit, bool) {
	for _, u := range c.Units {
		if u.Name == name {
			return u, true
		}
	}
	return HousingUnit{}, false
}

// Tag is a label placement for the external tag renderer.
type Tag struct {
	NodeID   string
	Text     string
	Position math.Vec3
}

// Tags returns one label per building, positions multiplied by the model
// scale.
func (c Catalog) Tags(scale float32) []Tag {
	if scale == 0 {
		scale = 1
	}
	tags := make([]Tag, len(c.Buildings))
	for i, b := range c.Buildings {
		tags[i] = Tag{NodeID: b.ID, Text: b.Label, Position: b.Position.Scale(scale)}
	}
	return tags
}
