package analysis

import (
	"context"
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/classify"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/raycast"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// ViewConfig shapes the view sweep.
type ViewConfig struct {
	MaxRadius float32 // farthest counted obstruction
	Angle     float32 // total sweep width in radians
	Segments  int
	// ObserverHeight lifts the fan center above the unit midpoint.
	ObserverHeight float32
}

// DefaultViewConfig is a 120° sweep of 120 segments out to 120 units.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		MaxRadius:      120,
		Angle:          2 * gomath.Pi / 3,
		Segments:       120,
		ObserverHeight: 0.1,
	}
}

// Validate checks the sweep parameters.
func (c ViewConfig) Validate() error {
	if c.Segments < 1 {
		return fmt.Errorf("segments must be at least 1, got %d", c.Segments)
	}
	if c.MaxRadius < 0 || c.Angle < 0 {
		return errors.New("radius and angle must not be negative")
	}
	return nil
}

// SectorArea is the area of an unobstructed sweep, ½·angle·r².
func (c ViewConfig) SectorArea() float64 {
	r := float64(c.MaxRadius)
	return 0.5 * float64(c.Angle) * r * r
}

// ViewFieldResult maps unit name to view area.
type ViewFieldResult map[string]float64

// Fan is a retained fan for one unit.
type Fan struct {
	Unit string
	Mesh *FanMesh
}

// ViewReport is the outcome of a view sweep.
type ViewReport struct {
	Areas ViewFieldResult
	// Fans is filled only when the analyzer keeps fans, in unit order.
	Fans []Fan
}

// FieldViewAnalyzer sweeps a horizontal fan of rays outward from each unit
// and measures the unobstructed area.
//
// Rays start on the unit's own panel, so the unit and everything below it
// in the scene graph are excluded from the hit test. Every other mesh in
// Model, other units included, can cut a ray short.
type FieldViewAnalyzer struct {
	// Raycaster is optional; when nil one is built over Model.
	Raycaster *raycast.Raycaster
	// Model is the building geometry rays are tested against.
	Model    *scene.Node
	Units    []classify.HousingUnit
	Config   ViewConfig
	Progress ProgressFunc
	Log      *zap.Logger
	KeepFans bool
}

// Run sweeps every unit. It refuses to run without a model.
func (a *FieldViewAnalyzer) Run(ctx context.Context) (*ViewReport, error) {
	log := logger.OrNop(a.Log)
	if a.Model == nil {
		return nil, ErrModelNotReady
	}
	cfg := a.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rc := a.Raycaster
	if rc == nil {
		rc = raycast.NewRaycaster(a.Model)
	}
	var inModel raycast.Filter
	if rc.Root() != a.Model {
		inModel = raycast.ObjectsFilter([]*scene.Node{a.Model}, true)
	}

	report := &ViewReport{Areas: make(ViewFieldResult)}
	fan := NewFanMesh(cfg.Segments)
	for i, u := range a.Units {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("field view analysis: %w", err)
		}
		if err := a.sweep(rc, inModel, u, fan); err != nil {
			log.Warn("skipping unit", zap.String("unit", u.Name), zap.Error(err))
		} else {
			area := fan.Area()
			report.Areas[u.Name] = area
			if a.KeepFans {
				report.Fans = append(report.Fans, Fan{Unit: u.Name, Mesh: fan.Clone()})
			}
			log.Debug("view area", zap.String("unit", u.Name), zap.Float64("area", area))
		}
		a.Progress.report(PhaseFieldView, i+1, len(a.Units))
	}

	log.Info("field view analysis complete", zap.Int("units", len(report.Areas)))
	return report, nil
}

// sweep fills fan for one unit.
func (a *FieldViewAnalyzer) sweep(rc *raycast.Raycaster, inModel raycast.Filter, u classify.HousingUnit, fan *FanMesh) error {
	cfg := a.Config
	if !u.HasBounds || !u.Bounds.IsFinite() || u.Bounds.Degenerate() {
		return ErrDegenerateBounds
	}
	mid := u.Bounds.Center()
	forward := u.Bounds.Max.Sub(u.Bounds.Min).Normalize()
	outward := math.Vec3{X: -forward.Z, Z: forward.X}
	if outward.Length() < 1e-6 {
		// Forward is vertical, so there is no horizontal outward axis.
		return fmt.Errorf("%w: vertical forward axis", ErrDegenerateBounds)
	}
	outward = outward.Normalize()
	origin := mid.Add(math.Up.Scale(cfg.ObserverHeight))

	notSelf := raycast.ExcludeFilter([]*scene.Node{u.Node}, true)
	filter := func(n *scene.Node) bool {
		return notSelf(n) && (inModel == nil || inModel(n))
	}

	fan.Reset(origin)
	half := cfg.Angle / 2
	for i := 0; i <= cfg.Segments; i++ {
		angle := -half + cfg.Angle*float32(i)/float32(cfg.Segments)
		dir := math.RotateY(angle).TransformDirection(outward).Normalize()
		dist := cfg.MaxRadius
		if hit, ok := rc.Nearest(raycast.NewRay(origin, dir), cfg.MaxRadius, filter); ok {
			dist = hit.Distance
		}
		p := origin.Add(dir.Scale(dist))
		p.Y = origin.Y
		fan.SetEdge(i, p)
	}
	return nil
}
