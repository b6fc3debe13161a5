package animation

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// GradientTable is a hue ramp; Pos runs 0..1 and must be increasing.
type GradientTable []struct {
	Hue float64
	Pos float64
}

var DefaultGradient = GradientTable{
	{0.0, 0.0},
	{6.0, 0.04},   // pink
	{87.0, 0.14},  // red
	{88.0, 0.28},  // orange
	{98.0, 0.42},  // yellow
	{180.0, 0.56}, // green
	{190.0, 0.70}, // turquoise
	{320.0, 0.84}, // blue
	{328.0, 0.91}, // violet
	{360.0, 1.0},
}

// Color interpolates the hue at t in HCL space.
func (g GradientTable) Color(t, c, l float64) colorful.Color {
	for i := 0; i < len(g)-1; i++ {
		a, b := g[i], g[i+1]
		if a.Pos <= t && t <= b.Pos {
			h := (t-a.Pos)/(b.Pos-a.Pos)*(b.Hue-a.Hue) + a.Hue
			return colorful.Hcl(h, c, l)
		}
	}
	return colorful.Hcl(g[len(g)-1].Hue, c, l)
}

// Gradient scrolls a hue ramp along one axis (0=X, 1=Y, 2=Z). Without
// locations it runs along the LED index.
type Gradient struct {
	name      string
	table     GradientTable
	Axis      int
	Speed     float64 // ramp lengths per second
	Chroma    float64
	Luminance float64
}

func NewGradient(name string, table GradientTable) *Gradient {
	return &Gradient{name: name, table: table, Axis: 2, Speed: 0.25, Chroma: 1, Luminance: 0.6}
}

func (g *Gradient) Name() string { return g.name }

func (g *Gradient) Frame(dst []pixel.Color, locs []pixel.Vec3, _ int, t float64) {
	lo, hi := 0.0, float64(len(dst))
	if locs != nil {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, p := range locs {
			v := axis(p, g.Axis)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i := range dst {
		v := float64(i)
		if locs != nil {
			v = axis(locs[i], g.Axis)
		}
		pos := math.Mod((v-lo)/span+t*g.Speed, 1)
		if pos < 0 {
			pos++
		}
		r, gr, b := g.table.Color(pos, g.Chroma, g.Luminance).Clamped().RGB255()
		dst[i] = pixel.Color{R: float64(r), G: float64(gr), B: float64(b)}
	}
}

func axis(p pixel.Vec3, a int) float64 {
	switch a {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}
