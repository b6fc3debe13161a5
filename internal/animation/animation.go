// Package animation holds the built-in per-frame color programs and the loop
// that drives them against a pixel driver.
package animation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neopixelsim/internal/lifecycle"
	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// Animation computes one frame. dst has one entry per LED and takes 0..255
// channel values; locs is nil when no positions are known. t is seconds
// since the first frame.
type Animation interface {
	Name() string
	Frame(dst []pixel.Color, locs []pixel.Vec3, frame int, t float64)
}

type Registry struct{ m map[string]Animation }

func NewRegistry() *Registry { return &Registry{m: map[string]Animation{}} }

func (r *Registry) Register(a Animation) {
	if a == nil {
		return
	}
	r.m[a.Name()] = a
}

func (r *Registry) Get(name string) (Animation, bool) { a, ok := r.m[name]; return a, ok }

// List returns the registered names in order.
func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtins registers every built-in animation. seed feeds the random ones.
func Builtins(seed int64) *Registry {
	r := NewRegistry()
	r.Register(NewSolid("solid", pixel.Color{R: 255, G: 255, B: 255}))
	r.Register(NewGradient("gradient", DefaultGradient))
	r.Register(NewRandomFade("random-fade", seed))
	r.Register(&IndexSweep{})
	r.Register(&RGBChannels{})
	r.Register(&PlaneZ{})
	return r
}

// Pixels is the driver surface an animation loop needs.
type Pixels interface {
	Len() int
	Locations() []pixel.Vec3
	Set(i int, c pixel.Color) error
	Present() error
}

// Run renders frames into px until Present reports a stop, which is a normal
// end and returns nil, or until ctx is done or another error occurs.
// It returns the number of frames presented.
func Run(ctx context.Context, px Pixels, a Animation) (int, error) {
	dst := make([]pixel.Color, px.Len())
	locs := px.Locations()
	start := time.Now()
	for frame := 0; ; frame++ {
		if err := ctx.Err(); err != nil {
			return frame, err
		}
		a.Frame(dst, locs, frame, time.Since(start).Seconds())
		for i, c := range dst {
			if err := px.Set(i, c); err != nil {
				return frame, err
			}
		}
		if err := px.Present(); err != nil {
			if !errors.Is(err, lifecycle.ErrStopped) {
				return frame, err
			}
			r, _ := lifecycle.ReasonOf(err)
			log.Info().Str("animation", a.Name()).Int("frames", frame+1).Stringer("reason", r).Msg("animation stopped")
			if _, clean := err.(*lifecycle.StopError); clean {
				return frame + 1, nil
			}
			// stopped, but finalizing failed
			return frame + 1, err
		}
	}
}
