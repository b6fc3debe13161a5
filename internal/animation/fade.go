package animation

import (
	"math/rand"

	"github.com/fogleman/ease"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// RandomFade picks a random color for every LED and fades to it over
// FadeFrames frames, then picks again.
type RandomFade struct {
	name       string
	rng        *rand.Rand
	FadeFrames int
	Ease       func(float64) float64

	last, next []pixel.Color
	start      int
}

func NewRandomFade(name string, seed int64) *RandomFade {
	return &RandomFade{
		name:       name,
		rng:        rand.New(rand.NewSource(seed)),
		FadeFrames: 60,
		Ease:       ease.InOutQuad,
	}
}

func (f *RandomFade) Name() string { return f.name }

func (f *RandomFade) Frame(dst []pixel.Color, _ []pixel.Vec3, frame int, _ float64) {
	n := max(1, f.FadeFrames)
	if len(f.next) != len(dst) {
		f.last = make([]pixel.Color, len(dst))
		f.next = nil
	}
	if f.next == nil || frame-f.start >= n {
		if f.next != nil {
			copy(f.last, f.next)
		}
		f.next = make([]pixel.Color, len(dst))
		for i := range f.next {
			f.next[i] = pixel.Color{
				R: float64(f.rng.Intn(256)),
				G: float64(f.rng.Intn(256)),
				B: float64(f.rng.Intn(256)),
			}
		}
		f.start = frame
	}

	lerp := float64(frame-f.start) / float64(n)
	if f.Ease != nil {
		lerp = f.Ease(lerp)
	}
	for i := range dst {
		a, b := f.last[i], f.next[i]
		dst[i] = pixel.Color{
			R: min(a.R*(1-lerp)+b.R*lerp, 255),
			G: min(a.G*(1-lerp)+b.G*lerp, 255),
			B: min(a.B*(1-lerp)+b.B*lerp, 255),
		}
	}
}
