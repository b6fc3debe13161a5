// Package layout generates LED positions for regular panel lattices, used when
// no coordinate file is supplied.
package layout

import (
	"strconv"
	"strings"

	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

type Dim struct{ X, Y, Z int }

type Serpentine struct {
	XFlipEveryRow   bool
	YFlipEveryPanel bool
}

type Layout struct {
	Dim        Dim
	Order      Serpentine
	PanelGapMM float64
	PitchMM    float64
}

// Index maps x,y,z -> linear LED index (0..N-1)
func (l Layout) Index(x, y, z int) int {
	yy := y
	xx := x
	if (y%2 == 1) && l.Order.XFlipEveryRow {
		xx = l.Dim.X - 1 - x
	}
	if l.Order.YFlipEveryPanel && (z%2 == 1) {
		yy = l.Dim.Y - 1 - y
	}
	perPanel := l.Dim.X * l.Dim.Y
	return z*perPanel + yy*l.Dim.X + xx
}

func (l Layout) Count() int {
	return l.Dim.X * l.Dim.Y * l.Dim.Z
}

// Positions bakes the physical position of every LED in wiring order.
// Pitch spaces LEDs within a panel; panels are PitchMM+PanelGapMM apart along Z.
// A zero pitch falls back to unit spacing.
func (l Layout) Positions() []pixel.Vec3 {
	pitch := l.PitchMM
	if pitch <= 0 {
		pitch = 1
	}
	out := make([]pixel.Vec3, l.Count())
	for z := 0; z < l.Dim.Z; z++ {
		for y := 0; y < l.Dim.Y; y++ {
			for x := 0; x < l.Dim.X; x++ {
				out[l.Index(x, y, z)] = pixel.Vec3{
					X: float64(x) * pitch,
					Y: float64(y) * pitch,
					Z: float64(z) * (pitch + l.PanelGapMM),
				}
			}
		}
	}
	return out
}

// Strip lays count LEDs along X, the shape of a bare strip.
func Strip(count int) Layout {
	return Layout{Dim: Dim{X: count, Y: 1, Z: 1}}
}

// ParseDim reads "x,y,z".
func ParseDim(s string) (Dim, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Dim{}, simerr.Configf("lattice %q: want x,y,z", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return Dim{}, simerr.Configf("lattice %q: %q is not a positive integer", s, p)
		}
		v[i] = n
	}
	return Dim{X: v[0], Y: v[1], Z: v[2]}, nil
}
