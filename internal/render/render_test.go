package render

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

const waitFor = 2 * time.Second

func TestCommandsCopyPayload(t *testing.T) {
	colors := []pixel.Color{{R: 1}}
	c := PixelsCommand(colors)
	colors[0].R = 0
	assert.Equal(t, 1.0, c.Pixels[0].R)
	assert.Equal(t, "set-pixels", c.Kind.String())

	locs := []pixel.Vec3{{X: 1}}
	l := LocationsCommand(locs)
	locs[0].X = 9
	assert.Equal(t, 1.0, l.Locations[0].X)

	assert.Equal(t, KindExit, ExitCommand().Kind)
}

func TestMailboxFIFO(t *testing.T) {
	m := NewMailbox()
	assert.Nil(t, m.Drain())

	const producers, each = 4, 250
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				m.Push(PixelsCommand([]pixel.Color{{R: float64(p), G: float64(i)}}))
			}
		}(p)
	}
	wg.Wait()

	select {
	case <-m.Ready():
	default:
		t.Fatal("ready not signalled")
	}

	got := m.Drain()
	require.Len(t, got, producers*each)
	last := map[float64]float64{}
	for _, c := range got {
		p, i := c.Pixels[0].R, c.Pixels[0].G
		if prev, ok := last[p]; ok {
			assert.Greater(t, i, prev, "producer %v out of order", p)
		}
		last[p] = i
	}
	assert.Equal(t, 0, m.Len())
}

func TestProcessRedrawsOnlyWhenDirty(t *testing.T) {
	nop := NewNop()
	p, err := Start(nop, Options{Poll: 100 * time.Microsecond})
	require.NoError(t, err)

	locs := []pixel.Vec3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 4, Z: 6}}
	p.Send(LocationsCommand(locs))
	p.Send(PixelsCommand([]pixel.Color{{R: 1}, {B: 1}}))
	require.Eventually(t, func() bool { return nop.Draws() >= 1 }, waitFor, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	draws := nop.Draws()
	assert.LessOrEqual(t, draws, 2)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, draws, nop.Draws(), "idle loop must not redraw")

	s := nop.Last()
	assert.Equal(t, locs, s.Locations)
	assert.Equal(t, pixel.Vec3{X: 2, Y: 4, Z: 6}, s.Bounds.Max)

	p.Send(PixelsCommand([]pixel.Color{{G: 1}, {G: 1}}))
	require.Eventually(t, func() bool { return nop.Last().Colors[0].G == 1 }, waitFor, time.Millisecond)
	assert.False(t, nop.Last().BoundsChanged)

	p.Send(ExitCommand())
	require.NoError(t, p.Wait())
	assert.False(t, p.Alive())
	assert.False(t, p.Closing())
	assert.True(t, nop.Released())
}

func TestProcessExitDiscardsLaterCommands(t *testing.T) {
	nop := NewNop()
	p, err := Start(nop, Options{})
	require.NoError(t, err)

	p.Send(ExitCommand())
	require.NoError(t, p.Wait())
	for i := 0; i < 10; i++ {
		p.Send(PixelsCommand([]pixel.Color{{R: 1}}))
	}
	assert.Equal(t, 0, nop.Draws())
	assert.Equal(t, 0, p.inbox.Len(), "nothing piles up after the loop ended")
}

func TestProcessWindowClose(t *testing.T) {
	nop := NewNop()
	p, err := Start(nop, Options{})
	require.NoError(t, err)
	require.True(t, p.Alive())

	nop.CloseWindow()
	select {
	case <-p.Done():
	case <-time.After(waitFor):
		t.Fatal("loop did not observe close")
	}
	assert.NoError(t, p.Wait())
	assert.True(t, p.Closing())
	assert.False(t, p.Alive())
}

func TestProcessDrawFailureEndsLoop(t *testing.T) {
	nop := NewNop()
	nop.FailAfter(1)
	p, err := Start(nop, Options{})
	require.NoError(t, err)

	p.Send(PixelsCommand([]pixel.Color{{R: 1}}))
	err = p.Wait()
	assert.ErrorIs(t, err, errDrawFailed)
	assert.False(t, p.Alive())
}

type panicky struct{ *Nop }

func (panicky) Draw(Scene) error { panic("boom") }

func TestProcessPanicIsReported(t *testing.T) {
	p, err := Start(panicky{NewNop()}, Options{})
	require.NoError(t, err)
	p.Send(PixelsCommand([]pixel.Color{{}}))
	err = p.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestScenePointsFallback(t *testing.T) {
	s := Scene{Colors: make([]pixel.Color, 3)}
	assert.Equal(t, []pixel.Vec3{{X: 0}, {X: 1}, {X: 2}}, s.Points())
}

func TestCameraProject(t *testing.T) {
	cam := Camera{Zoom: 1, Distance: 4}
	b := ComputeBounds([]pixel.Vec3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: 1}})

	c, ok := cam.Project(b.Center(), b, 100, 50)
	require.True(t, ok)
	assert.InDelta(t, 50, c.X, 1e-9)
	assert.InDelta(t, 25, c.Y, 1e-9)

	up, ok := cam.Project(pixel.Vec3{Z: 1}, b, 100, 50)
	require.True(t, ok)
	assert.Less(t, up.Y, c.Y, "world Z is screen up")

	pts := DefaultCamera().ProjectAll([]pixel.Vec3{{X: 0, Y: -1, Z: 0}, {X: 0, Y: 1, Z: 0}}, b, 100, 100)
	require.Len(t, pts, 2)
	assert.LessOrEqual(t, pts[0].Depth, pts[1].Depth)
}

func TestCameraKeepsBoxAspect(t *testing.T) {
	cam := Camera{Zoom: 1, Distance: 1000}
	b := ComputeBounds([]pixel.Vec3{{X: 0, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 1}})
	l, _ := cam.Project(pixel.Vec3{X: 0, Z: 0.5}, b, 200, 200)
	r, _ := cam.Project(pixel.Vec3{X: 10, Z: 0.5}, b, 200, 200)
	top, _ := cam.Project(pixel.Vec3{X: 5, Z: 1}, b, 200, 200)
	bot, _ := cam.Project(pixel.Vec3{X: 5, Z: 0}, b, 200, 200)
	assert.InDelta(t, 10, (r.X-l.X)/(bot.Y-top.Y), 0.1)
}
