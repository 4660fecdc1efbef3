package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/analysis"
	"github.com/yejunweb/3d-solar-threejs/internal/classify"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/raycast"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/internal/solar"
	"github.com/yejunweb/3d-solar-threejs/internal/surface"
)

// AnalysisSession is the state one host owns: its surface, the loaded
// model and everything derived from it.
type AnalysisSession struct {
	ID      string
	Surface surface.Surface

	Model     *scene.Node
	Catalog   classify.Catalog
	Raycaster *raycast.Raycaster

	log *zap.Logger
}

// NewSession creates an empty session around a bound surface.
func NewSession(s surface.Surface, log *zap.Logger) *AnalysisSession {
	id := uuid.NewString()
	return &AnalysisSession{
		ID:      id,
		Surface: s,
		log:     logger.OrNop(log).With(zap.String("session", id)),
	}
}

// Ready reports whether a model is loaded.
func (s *AnalysisSession) Ready() bool { return s.Model != nil }

// Load fetches the model, applies the display pass, classifies it and
// indexes its triangles. On error the session keeps its previous model.
func (s *AnalysisSession) Load(ctx context.Context, loader scene.Loader, url string) error {
	root, err := safeLoad(ctx, loader, url)
	if err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	st := classify.ApplyPresentation(root)
	cat := classify.Classify(root)

	s.Model = root
	s.Catalog = cat
	s.Raycaster = raycast.NewRaycaster(root)

	s.log.Info("model loaded",
		zap.String("url", url),
		zap.Int("buildings", len(cat.Buildings)),
		zap.Int("units", len(cat.Units)),
		zap.Int("hidden", st.Hidden),
		zap.Int("triangles", s.Raycaster.Index().Len()))
	if len(cat.Units) == 0 {
		s.log.Warn("model has no housing units")
	}
	return nil
}

// safeLoad turns a loader panic on malformed input into an error.
func safeLoad(ctx context.Context, loader scene.Loader, url string) (root *scene.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			root, err = nil, fmt.Errorf("loader panicked: %v", r)
		}
	}()
	return loader.Load(ctx, url)
}

// Sunlight runs the occlusion analyzer over samples.
func (s *AnalysisSession) Sunlight(ctx context.Context, samples []solar.Sample, sunDistance float32, progress analysis.ProgressFunc) (analysis.SunlightResult, error) {
	if !s.Ready() {
		return nil, analysis.ErrModelNotReady
	}
	a := &analysis.SunlightAnalyzer{
		Raycaster:   s.Raycaster,
		Units:       s.Catalog.Units,
		SunDistance: sunDistance,
		Progress:    progress,
		Log:         s.log,
	}
	return a.Run(ctx, samples)
}

// FieldView runs the view analyzer.
func (s *AnalysisSession) FieldView(ctx context.Context, cfg analysis.ViewConfig, keepFans bool, progress analysis.ProgressFunc) (*analysis.ViewReport, error) {
	a := &analysis.FieldViewAnalyzer{
		Raycaster: s.Raycaster,
		Model:     s.Model,
		Units:     s.Catalog.Units,
		Config:    cfg,
		Progress:  progress,
		Log:       s.log,
		KeepFans:  keepFans,
	}
	return a.Run(ctx)
}

// Close releases the surface.
func (s *AnalysisSession) Close() {
	if s.Surface != nil {
		s.Surface.Release()
		s.Surface = nil
	}
}
