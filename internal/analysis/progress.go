// Package analysis computes per-unit sunlight minutes and view areas.
package analysis

import (
	"errors"
	"fmt"
)

// Phase names the analysis stage a progress report belongs to.
type Phase string

const (
	PhaseSunlight  Phase = "sunlight"
	PhaseFieldView Phase = "fieldView"
)

// Progress reports Done of Total iterations of a phase.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Percent returns completion in [0, 100].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Done) * 100 / float64(p.Total)
}

// String formats the percentage with two decimals, e.g. "37.50%".
func (p Progress) String() string {
	return fmt.Sprintf("%.2f%%", p.Percent())
}

// ProgressFunc receives one report per outer iteration.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(phase Phase, done, total int) {
	if f != nil {
		f(Progress{Phase: phase, Done: done, Total: total})
	}
}

var (
	// ErrModelNotReady means the analysis was asked to run without a model.
	ErrModelNotReady = errors.New("model not ready")
	// ErrDegenerateBounds marks a unit whose box is non-finite or flat.
	ErrDegenerateBounds = errors.New("degenerate bounding box")
	// ErrInvalidPosition marks a unit whose world position is non-finite.
	ErrInvalidPosition = errors.New("invalid world position")
	// ErrNoGeometry marks a unit without triangles.
	ErrNoGeometry = errors.New("unit has no geometry")
)
