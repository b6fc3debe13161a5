package animation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neopixelsim/internal/lifecycle"
	"github.com/coreman2200/neopixelsim/internal/pixel"
)

func TestBuiltinsListed(t *testing.T) {
	r := Builtins(1)
	assert.Equal(t, []string{"gradient", "index-sweep", "plane-z", "random-fade", "rgb-channels", "solid"}, r.List())
	_, ok := r.Get("random-fade")
	assert.True(t, ok)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestSolidPulse(t *testing.T) {
	s := NewSolid("solid", pixel.Color{R: 200, G: 100})
	dst := make([]pixel.Color, 3)
	s.Frame(dst, nil, 0, 0)
	assert.Equal(t, pixel.Color{R: 200, G: 100}, dst[2])

	s.PulseHz = 1
	s.Frame(dst, nil, 0, 0.75)
	assert.InDelta(t, 0, dst[0].R, 1e-9)
}

func TestRandomFadeIsSeeded(t *testing.T) {
	a, b := NewRandomFade("a", 7), NewRandomFade("b", 7)
	da, db := make([]pixel.Color, 5), make([]pixel.Color, 5)
	for f := 0; f < 130; f++ {
		a.Frame(da, nil, f, 0)
		b.Frame(db, nil, f, 0)
		require.Equal(t, da, db, "frame %d", f)
	}
}

func TestRandomFadeEndpoints(t *testing.T) {
	f := NewRandomFade("f", 3)
	f.FadeFrames = 10
	dst := make([]pixel.Color, 4)

	f.Frame(dst, nil, 0, 0)
	for _, c := range dst {
		assert.Equal(t, pixel.Color{}, c, "fade starts from black")
	}
	target := append([]pixel.Color(nil), f.next...)

	f.Frame(dst, nil, 10, 0)
	assert.Equal(t, target, f.last, "next fade starts where the last ended")
	for _, c := range dst {
		assert.True(t, c.R >= 0 && c.R <= 255 && c.G <= 255 && c.B <= 255)
	}
}

func TestGradientWithoutLocations(t *testing.T) {
	g := NewGradient("g", DefaultGradient)
	dst := make([]pixel.Color, 8)
	g.Frame(dst, nil, 0, 0)
	assert.NotEqual(t, dst[0], dst[4])
	for _, c := range dst {
		assert.True(t, c.R <= 255 && c.G <= 255 && c.B <= 255)
	}
}

func TestGradientFollowsAxis(t *testing.T) {
	g := NewGradient("g", DefaultGradient)
	g.Speed = 0
	locs := []pixel.Vec3{{X: 0, Z: 0}, {X: 5, Z: 0}, {X: 0, Z: 0.5}, {Z: 1}}
	dst := make([]pixel.Color, 4)
	g.Frame(dst, locs, 0, 0)
	assert.Equal(t, dst[0], dst[1], "same height, same color")
	assert.NotEqual(t, dst[0], dst[2])
}

func TestPatterns(t *testing.T) {
	dst := make([]pixel.Color, 3)
	(&IndexSweep{}).Frame(dst, nil, 4, 0)
	assert.Equal(t, []pixel.Color{{}, {R: 255, G: 255, B: 255}, {}}, dst)

	rgb := &RGBChannels{Hold: 2}
	rgb.Frame(dst, nil, 2, 0)
	assert.Equal(t, pixel.Color{G: 255}, dst[0])
	rgb.Frame(dst, nil, 5, 0)
	assert.Equal(t, pixel.Color{B: 255}, dst[2])

	pz := &PlaneZ{Steps: 2}
	locs := []pixel.Vec3{{Z: 0}, {Z: 0.4}, {Z: 1}}
	pz.Frame(dst, locs, 1, 0)
	assert.Equal(t, []pixel.Color{{}, {}, {G: 255, B: 255}}, dst)
}

type fakePixels struct {
	n        int
	stopAt   int
	stopErr  error
	presents int
	set      []pixel.Color
}

func (f *fakePixels) Len() int                { return f.n }
func (f *fakePixels) Locations() []pixel.Vec3 { return nil }

func (f *fakePixels) Set(i int, c pixel.Color) error {
	if f.set == nil {
		f.set = make([]pixel.Color, f.n)
	}
	f.set[i] = c
	return nil
}

func (f *fakePixels) Present() error {
	f.presents++
	if f.presents >= f.stopAt {
		return f.stopErr
	}
	return nil
}

func TestRunStopsCleanly(t *testing.T) {
	px := &fakePixels{n: 3, stopAt: 5, stopErr: &lifecycle.StopError{Reason: lifecycle.TimeBudgetExceeded}}
	n, err := Run(context.Background(), px, NewSolid("s", pixel.Color{R: 1}))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, pixel.Color{R: 1}, px.set[2])
}

func TestRunReportsFinalizeFailure(t *testing.T) {
	stop := errors.Join(&lifecycle.StopError{Reason: lifecycle.ExplicitExit}, errors.New("disk full"))
	_, err := Run(context.Background(), &fakePixels{n: 1, stopAt: 1, stopErr: stop}, &IndexSweep{})
	assert.ErrorIs(t, err, lifecycle.ErrStopped)
	assert.ErrorContains(t, err, "disk full")
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := Run(ctx, &fakePixels{n: 1, stopAt: 100}, &IndexSweep{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
