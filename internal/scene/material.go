package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB colour packed as 0xRRGGBB.
type Color uint32

// White is the default material colour.
const White Color = 0xffffff

// RGB packs linear [0,1] channels into a Color.
func RGB(r, g, b float64) Color {
	return Color(channel(r)<<16 | channel(g)<<8 | channel(b))
}

func channel(v float64) uint32 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint32(v*255 + 0.5)
}

// ParseColor parses "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x")
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color(v), nil
}

// String formats the colour as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c))
}

// Material is the surface description carried by mesh nodes. Only the
// attributes the analysis pipeline touches are modelled.
type Material struct {
	Color       Color
	DoubleSided bool

	// OriginColor holds the colour from before a presentation tint.
	OriginColor Color
	HasOrigin   bool
}

// Clone returns an independent copy.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}
