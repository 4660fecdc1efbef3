package analysis

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// fanPalette cycles per unit.
var fanPalette = []color.NRGBA{
	{0x2b, 0x8c, 0xbe, 0xa0},
	{0xe3, 0x4a, 0x33, 0xa0},
	{0x31, 0xa3, 0x54, 0xa0},
	{0xfe, 0xb2, 0x4c, 0xa0},
	{0x75, 0x6b, 0xb1, 0xa0},
}

// RenderFans rasterizes the fans onto a size×size plan view (x right,
// z down) scaled to fit all of them. The background is transparent.
func RenderFans(fans []Fan, size int) *image.RGBA {
	if size < 1 {
		size = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	var bound orb.Bound
	first := true
	for _, f := range fans {
		if f.Mesh == nil || f.Mesh.Valid() < 2 {
			continue
		}
		b := FanPolygon(f.Mesh).Bound()
		if first {
			bound, first = b, false
		} else {
			bound = bound.Union(b)
		}
	}
	if first {
		return img
	}

	// Uniform scale with a small margin keeps sectors round.
	const margin = 0.05
	extent := max(bound.Right()-bound.Left(), bound.Top()-bound.Bottom())
	if extent <= 0 {
		return img
	}
	scale := float64(size) * (1 - 2*margin) / extent
	offset := float64(size) * margin
	project := func(p orb.Point) (float32, float32) {
		return float32(offset + (p[0]-bound.Left())*scale), float32(offset + (p[1]-bound.Bottom())*scale)
	}

	for i, f := range fans {
		if f.Mesh == nil || f.Mesh.Valid() < 2 {
			continue
		}
		ring := FanPolygon(f.Mesh)[0]
		r := vector.NewRasterizer(size, size)
		r.DrawOp = draw.Over
		x, y := project(ring[0])
		r.MoveTo(x, y)
		for _, p := range ring[1:] {
			x, y = project(p)
			r.LineTo(x, y)
		}
		r.ClosePath()
		r.Draw(img, img.Bounds(), image.NewUniform(fanPalette[i%len(fanPalette)]), image.Point{})
	}
	return img
}
