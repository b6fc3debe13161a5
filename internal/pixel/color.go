package pixel

import "math"

// Vec3 is an LED position in whatever units the coordinate file uses.
type Vec3 struct{ X, Y, Z float64 }

// Finite reports whether every component is a real number.
func (v Vec3) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// Color holds three channel intensities. Callers pass 0..255; the buffer keeps
// them normalized to 0..1.
type Color struct{ R, G, B float64 }

func (c Color) channels() [3]float64 { return [3]float64{c.R, c.G, c.B} }

func fromChannels(ch [3]float64) Color { return Color{R: ch[0], G: ch[1], B: ch[2]} }

// Scale multiplies every channel by s.
func (c Color) Scale(s float64) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s}
}

// Clamped returns c with every channel limited to [0,1].
func (c Color) Clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// Channel255 scales a normalized channel to 0..255, clamps and truncates.
// NaN maps to 0. The epsilon absorbs the error of a v/255*255 round trip.
func Channel255(v float64) int {
	x := v*255 + 1e-9
	if !(x > 0) {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return int(x)
}

func clamp01(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
