package analysis

import (
	"context"
	"encoding/json"
	gomath "math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yejunweb/3d-solar-threejs/internal/classify"
	"github.com/yejunweb/3d-solar-threejs/internal/raycast"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/internal/solar"
	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// unitBox adds a 2x2x2 box unit centred at pos.
func unitBox(parent *scene.Node, name string, pos math.Vec3) *scene.Node {
	n := scene.NewNode(name)
	n.Transform.Position = pos
	n.Mesh = scene.BoxMesh(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	parent.Add(n)
	return n
}

func constantSamples(dir math.Vec3, n int) []solar.Sample {
	out := make([]solar.Sample, n)
	start := time.Date(2024, 6, 21, 8, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = solar.Sample{Time: start.Add(time.Duration(i) * time.Minute), Direction: dir.Normalize()}
	}
	return out
}

func sunlightFor(root *scene.Node) *SunlightAnalyzer {
	cat := classify.Classify(root)
	return &SunlightAnalyzer{Raycaster: raycast.NewRaycaster(root), Units: cat.Units}
}

func TestSunlightOverheadUnobstructed(t *testing.T) {
	root := scene.NewNode("Scene")
	unitBox(root, "8D701", math.Vec3{})
	unitBox(root, "18D701", math.Vec3{X: 10})

	res, err := sunlightFor(root).Run(context.Background(), constantSamples(math.Up, 480))
	require.NoError(t, err)
	assert.Equal(t, SunlightResult{"8D701": 480, "18D701": 480}, res)
}

func TestSunlightBlockedBySiblingUnit(t *testing.T) {
	root := scene.NewNode("Scene")
	unitBox(root, "8D701", math.Vec3{})
	// Offset so the ray does not graze the box face diagonals.
	unitBox(root, "18D701", math.Vec3{X: 10, Y: 0.3, Z: -0.2})

	// Low sun due +X: 8D701 looks straight through 18D701.
	res, err := sunlightFor(root).Run(context.Background(), constantSamples(math.Vec3{X: 1}, 480))
	require.NoError(t, err)
	assert.Equal(t, 0, res["8D701"])
	assert.Equal(t, 480, res["18D701"])
}

func TestSunlightBlockerBeyondVirtualSun(t *testing.T) {
	root := scene.NewNode("Scene")
	unitBox(root, "8D701", math.Vec3{})
	unitBox(root, "18D701", math.Vec3{X: 0.3, Y: 250, Z: -0.2})

	a := sunlightFor(root)
	a.SunDistance = 200
	res, err := a.Run(context.Background(), constantSamples(math.Up, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, res["8D701"])
	assert.Equal(t, 10, res["18D701"])
}

func TestSunlightIgnoresNonUnitGeometry(t *testing.T) {
	root := scene.NewNode("Scene")
	unitBox(root, "8D701", math.Vec3{})
	wall := scene.NewNode("wall")
	wall.Mesh = scene.BoxMesh(math.Vec3{X: 4, Y: -5, Z: -5}, math.Vec3{X: 5, Y: 5, Z: 5})
	root.Add(wall)

	res, err := sunlightFor(root).Run(context.Background(), constantSamples(math.Vec3{X: 1}, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, res["8D701"])
}

func TestSunlightSkipsInvalidUnits(t *testing.T) {
	root := scene.NewNode("Scene")
	good := unitBox(root, "8D701", math.Vec3{})
	bare := scene.NewNode("8D702")
	root.Add(bare)
	nan := unitBox(root, "8D703", math.Vec3{X: 50})

	units := []classify.HousingUnit{
		{Name: good.Name, Node: good, Position: good.WorldPosition()},
		{Name: bare.Name, Node: bare, Position: bare.WorldPosition()},
		{Name: nan.Name, Node: nan, Position: math.Vec3{X: float32(gomath.NaN())}},
		{Name: "8D704"},
	}
	a := &SunlightAnalyzer{Raycaster: raycast.NewRaycaster(root), Units: units}
	res, err := a.Run(context.Background(), constantSamples(math.Up, 5))
	require.NoError(t, err)
	assert.Equal(t, SunlightResult{"8D701": 5}, res)
}

func TestSunlightWithRealSamples(t *testing.T) {
	root := scene.NewNode("Scene")
	unitBox(root, "8D701", math.Vec3{})

	cfg := solar.DefaultConfig()
	s, err := solar.NewSampler(cfg)
	require.NoError(t, err)
	samples := s.Samples(s.Day(solar.WinterSolstice, 2024))

	var reports []Progress
	a := sunlightFor(root)
	a.Progress = func(p Progress) { reports = append(reports, p) }
	res, err := a.Run(context.Background(), samples)
	require.NoError(t, err)
	assert.Equal(t, 480, res["8D701"])
	require.Len(t, reports, 480)
	assert.Equal(t, "100.00%", reports[479].String())
	assert.Equal(t, PhaseSunlight, reports[0].Phase)
}

func TestSunlightEmptyCatalogAndPreconditions(t *testing.T) {
	root := scene.NewNode("Scene")
	res, err := sunlightFor(root).Run(context.Background(), constantSamples(math.Up, 3))
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = (&SunlightAnalyzer{}).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrModelNotReady)
}

func TestSunlightCancelled(t *testing.T) {
	root := scene.NewNode("Scene")
	unitBox(root, "8D701", math.Vec3{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sunlightFor(root).Run(ctx, constantSamples(math.Up, 3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

// facade adds a 4x3 panel in the XY plane at pos; its outward axis is +Z.
func facade(parent *scene.Node, name string, pos math.Vec3) *scene.Node {
	n := scene.NewNode(name)
	n.Transform.Position = pos
	n.Mesh = scene.PlaneMesh(4, 3)
	parent.Add(n)
	return n
}

func chordArea(cfg ViewConfig) float64 {
	r := float64(cfg.MaxRadius)
	step := float64(cfg.Angle) / float64(cfg.Segments)
	return float64(cfg.Segments) * 0.5 * r * r * gomath.Sin(step)
}

func TestFieldViewUnobstructedMatchesSector(t *testing.T) {
	root := scene.NewNode("Scene")
	facade(root, "8D701", math.Vec3{})
	facade(root, "8D702", math.Vec3{X: 300})

	cfg := DefaultViewConfig()
	a := &FieldViewAnalyzer{Model: root, Units: classify.Classify(root).Units, Config: cfg, KeepFans: true}
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Areas, 2)

	for name, area := range report.Areas {
		assert.InEpsilon(t, chordArea(cfg), area, 1e-4, name)
		assert.LessOrEqual(t, area, cfg.SectorArea(), name)
		assert.InEpsilon(t, cfg.SectorArea(), area, 1e-3, name)
	}

	require.Len(t, report.Fans, 2)
	fan := report.Fans[0].Mesh
	assert.Equal(t, cfg.Segments+1, fan.Valid())
	assert.Equal(t, cfg.Segments+1, fan.Capacity())
	for _, e := range fan.Edges() {
		assert.InDelta(t, fan.Center().Y, e.Y, 1e-6, "sweep is planar")
		assert.Greater(t, e.Z, float32(0), "fan opens outward")
	}
	assert.InDelta(t, 0.1, fan.Center().Y, 1e-6)
}

func TestFieldViewEnclosedUnit(t *testing.T) {
	root := scene.NewNode("Scene")
	facade(root, "8D701", math.Vec3{})
	shell := scene.NewNode("shell")
	shell.Mesh = scene.BoxMesh(math.Vec3{X: -5, Y: -5, Z: -5}, math.Vec3{X: 5, Y: 5, Z: 5})
	root.Add(shell)
	units := classify.Classify(root).Units

	cfg := DefaultViewConfig()
	report, err := (&FieldViewAnalyzer{Model: root, Units: units, Config: cfg}).Run(context.Background())
	require.NoError(t, err)
	// Rays stop on the shell five units out.
	assert.Less(t, report.Areas["8D701"], 0.5*float64(cfg.Angle)*50+1)

	cfg.MaxRadius = 0.01
	report, err = (&FieldViewAnalyzer{Model: root, Units: units, Config: cfg}).Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, report.Areas["8D701"], 1e-3)
	assert.LessOrEqual(t, report.Areas["8D701"], cfg.SectorArea())
}

func TestFieldViewNearbyObstruction(t *testing.T) {
	root := scene.NewNode("Scene")
	facade(root, "8D701", math.Vec3{})
	// A wide wall 10 units in front of the panel.
	facade(root, "8D801", math.Vec3{Z: 10}).Transform.Scale = math.Vec3{X: 100, Y: 10, Z: 1}
	units := classify.Classify(root).Units

	report, err := (&FieldViewAnalyzer{Model: root, Units: units[:1], Config: DefaultViewConfig(), KeepFans: true}).Run(context.Background())
	require.NoError(t, err)
	// Straight ahead the view ends at the wall.
	fan := report.Fans[0].Mesh
	mid := fan.Edges()[60]
	assert.InDelta(t, 10, mid.Z, 1e-3)
	assert.Less(t, report.Areas["8D701"], DefaultViewConfig().SectorArea()/10)
}

func TestFieldViewSkipsDegenerateUnits(t *testing.T) {
	root := scene.NewNode("Scene")
	facade(root, "8D701", math.Vec3{})
	line := scene.NewNode("8D702")
	line.Mesh = &scene.Mesh{Positions: []math.Vec3{{}, {X: 1}, {X: 2}}}
	root.Add(line)
	units := classify.Classify(root).Units
	units = append(units, classify.HousingUnit{Name: "8D703"})

	var reports []Progress
	a := &FieldViewAnalyzer{
		Model:    root,
		Units:    units,
		Config:   DefaultViewConfig(),
		Progress: func(p Progress) { reports = append(reports, p) },
	}
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.Areas, "8D701")
	assert.NotContains(t, report.Areas, "8D702")
	assert.NotContains(t, report.Areas, "8D703")
	require.Len(t, reports, 3)
	assert.InDelta(t, 100, reports[2].Percent(), 1e-9)
}

func TestFieldViewModelNotReady(t *testing.T) {
	report, err := (&FieldViewAnalyzer{Config: DefaultViewConfig()}).Run(context.Background())
	assert.ErrorIs(t, err, ErrModelNotReady)
	assert.Nil(t, report)
}

func TestFieldViewCancelled(t *testing.T) {
	root := scene.NewNode("Scene")
	facade(root, "8D701", math.Vec3{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&FieldViewAnalyzer{Model: root, Units: classify.Classify(root).Units, Config: DefaultViewConfig()}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFieldViewSharedRaycasterLimitedToModel(t *testing.T) {
	world := scene.NewNode("World")
	model := scene.NewNode("Model")
	world.Add(model)
	facade(model, "8D701", math.Vec3{})
	// Outside the model: must not obstruct.
	blocker := scene.NewNode("tree")
	blocker.Mesh = scene.BoxMesh(math.Vec3{X: -50, Y: -5, Z: 5}, math.Vec3{X: 50, Y: 5, Z: 6})
	world.Add(blocker)

	cfg := DefaultViewConfig()
	a := &FieldViewAnalyzer{
		Raycaster: raycast.NewRaycaster(world),
		Model:     model,
		Units:     classify.Classify(model).Units,
		Config:    cfg,
	}
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.InEpsilon(t, chordArea(cfg), report.Areas["8D701"], 1e-4)
}

func TestFanMesh(t *testing.T) {
	f := NewFanMesh(2)
	f.Reset(math.Vec3{})
	f.SetEdge(0, math.Vec3{X: 1})
	f.SetEdge(1, math.Vec3{Z: 1})
	assert.InDelta(t, 0.5, f.Area(), 1e-9)
	assert.Equal(t, 2, f.Valid())

	// A stale tail from a previous unit is ignored after Reset.
	f.SetEdge(2, math.Vec3{X: -1})
	assert.InDelta(t, 1.0, f.Area(), 1e-9)
	f.Reset(math.Vec3{})
	f.SetEdge(0, math.Vec3{X: 1})
	f.SetEdge(1, math.Vec3{Z: 1})
	assert.InDelta(t, 0.5, f.Area(), 1e-9)

	// Edges at zero height still count.
	c := f.Clone()
	f.SetEdge(0, math.Vec3{X: 2})
	assert.InDelta(t, 0.5, c.Area(), 1e-9)
	assert.Equal(t, math.Vec3{X: 1}, c.Edges()[0])
}

func TestFansGeoJSON(t *testing.T) {
	root := scene.NewNode("Scene")
	facade(root, "8D701", math.Vec3{})
	cfg := DefaultViewConfig()
	cfg.Segments = 12
	report, err := (&FieldViewAnalyzer{Model: root, Units: classify.Classify(root).Units, Config: cfg, KeepFans: true}).Run(context.Background())
	require.NoError(t, err)

	fan := report.Fans[0]
	assert.InEpsilon(t, fan.Mesh.Area(), PlanarArea(fan.Mesh), 1e-4)

	fc := FansGeoJSON(report.Fans)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "8D701", fc.Features[0].Properties["unit"])
	assert.InEpsilon(t, PlanarArea(fan.Mesh), fc.Features[0].Properties["area"], 1e-9)
	assert.Equal(t, 12, fc.Features[0].Properties["segments"])

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Polygon"`)
}

func TestRenderFans(t *testing.T) {
	fan := NewFanMesh(2)
	fan.Reset(math.Vec3{})
	fan.SetEdge(0, math.Vec3{X: 10})
	fan.SetEdge(1, math.Vec3{X: 10, Z: 10})
	fan.SetEdge(2, math.Vec3{Z: 10})

	img := RenderFans([]Fan{{Unit: "8D701", Mesh: fan}}, 100)
	require.Equal(t, 100, img.Bounds().Dx())
	assert.NotZero(t, img.RGBAAt(50, 50).A, "inside the fan")
	assert.Zero(t, img.RGBAAt(1, 1).A, "margin stays transparent")
	assert.Zero(t, img.RGBAAt(98, 50).A, "margin stays transparent")

	empty := RenderFans(nil, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			require.Zero(t, empty.RGBAAt(x, y).A)
		}
	}
}
