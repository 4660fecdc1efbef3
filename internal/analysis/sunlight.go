package analysis

import (
	"context"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/classify"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/raycast"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/internal/solar"
)

// SunlightResult maps unit name to the number of unobstructed samples.
type SunlightResult map[string]int

// SunlightAnalyzer counts, per housing unit, the samples in which nothing
// from another unit blocks the line to the sun.
type SunlightAnalyzer struct {
	Raycaster *raycast.Raycaster
	Units     []classify.HousingUnit
	// SunDistance places the virtual sun that sets each ray's direction.
	// The ray itself has no end, so occluders past the sun still count.
	// Zero means 200.
	SunDistance float32
	Progress    ProgressFunc
	Log         *zap.Logger
}

// Run tests every unit against every sample. A cancelled ctx aborts the run
// and no result is returned.
func (a *SunlightAnalyzer) Run(ctx context.Context, samples []solar.Sample) (SunlightResult, error) {
	log := logger.OrNop(a.Log)
	if a.Raycaster == nil {
		return nil, ErrModelNotReady
	}
	dist := a.SunDistance
	if dist <= 0 {
		dist = 200
	}

	result := make(SunlightResult)
	units := a.validUnits(log)
	for _, u := range units {
		result[u.Name] = 0
	}

	// Every node under a unit maps to that unit, so one lookup tells
	// whether a hit belongs to self.
	owner := make(map[*scene.Node]*scene.Node)
	for _, u := range a.Units {
		root := u.Node
		if root == nil {
			continue
		}
		root.Traverse(func(n *scene.Node) { owner[n] = root })
	}

	for i, smp := range samples {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sunlight analysis: %w", err)
		}
		sun := smp.SunPosition(dist)
		for _, u := range units {
			self := u.Node
			to := sun.Sub(u.Position)
			if to.Length() == 0 {
				continue
			}
			ray := raycast.NewRay(u.Position, to)
			blocked := a.Raycaster.Occluded(ray, gomath.MaxFloat32, func(n *scene.Node) bool {
				o, ok := owner[n]
				return ok && o != self
			})
			if !blocked {
				result[u.Name]++
			}
		}
		a.Progress.report(PhaseSunlight, i+1, len(samples))
	}

	log.Info("sunlight analysis complete",
		zap.Int("units", len(units)),
		zap.Int("samples", len(samples)))
	return result, nil
}

func (a *SunlightAnalyzer) validUnits(log *zap.Logger) []classify.HousingUnit {
	out := make([]classify.HousingUnit, 0, len(a.Units))
	for _, u := range a.Units {
		var err error
		switch {
		case u.Node == nil || !u.Node.HasGeometry():
			err = ErrNoGeometry
		case !u.Position.IsFinite():
			err = ErrInvalidPosition
		}
		if err != nil {
			log.Warn("skipping unit", zap.String("unit", u.Name), zap.Error(err))
			continue
		}
		out = append(out, u)
	}
	return out
}
