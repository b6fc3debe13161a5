package animation

import (
	"math"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// IndexSweep lights one LED at a time in wiring order, for checking that
// coordinates match the strip.
type IndexSweep struct{}

func (*IndexSweep) Name() string { return "index-sweep" }

func (*IndexSweep) Frame(dst []pixel.Color, _ []pixel.Vec3, frame int, _ float64) {
	clear(dst)
	if len(dst) == 0 {
		return
	}
	dst[frame%len(dst)] = pixel.Color{R: 255, G: 255, B: 255}
}

// RGBChannels shows all red, all green, then all blue, holding each for Hold
// frames. It makes a wrong channel order obvious.
type RGBChannels struct {
	Hold int
}

func (*RGBChannels) Name() string { return "rgb-channels" }

func (r *RGBChannels) Frame(dst []pixel.Color, _ []pixel.Vec3, frame int, _ float64) {
	hold := r.Hold
	if hold <= 0 {
		hold = 30
	}
	var c pixel.Color
	switch (frame / hold) % 3 {
	case 0:
		c.R = 255
	case 1:
		c.G = 255
	case 2:
		c.B = 255
	}
	for i := range dst {
		dst[i] = c
	}
}

// PlaneZ moves a horizontal cyan slab from the lowest LED to the highest.
type PlaneZ struct {
	Steps int
}

func (*PlaneZ) Name() string { return "plane-z" }

func (p *PlaneZ) Frame(dst []pixel.Color, locs []pixel.Vec3, frame int, _ float64) {
	clear(dst)
	if locs == nil {
		return
	}
	steps := p.Steps
	if steps <= 0 {
		steps = 20
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range locs {
		lo, hi = math.Min(lo, l.Z), math.Max(hi, l.Z)
	}
	slab := (hi - lo) / float64(steps)
	k := frame % steps
	for i, l := range locs {
		band := steps - 1
		if slab > 0 {
			band = min(steps-1, int((l.Z-lo)/slab))
		}
		if band == k {
			dst[i] = pixel.Color{G: 255, B: 255}
		}
	}
}
