package animation

import (
	"math"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// Solid fills every LED with one color, optionally pulsing its brightness.
type Solid struct {
	name    string
	c       pixel.Color
	PulseHz float64
}

func NewSolid(name string, c pixel.Color) *Solid { return &Solid{name: name, c: c} }

func (s *Solid) Name() string { return s.name }

func (s *Solid) Frame(dst []pixel.Color, _ []pixel.Vec3, _ int, t float64) {
	c := s.c
	if s.PulseHz > 0 {
		c = c.Scale(0.5 + 0.5*math.Sin(2*math.Pi*s.PulseHz*t))
	}
	for i := range dst {
		dst[i] = c
	}
}
