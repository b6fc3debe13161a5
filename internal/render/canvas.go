package render

import (
	"math"
	"sync"

	"github.com/coreman2200/neopixelsim/internal/layout"
	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// Canvas is the window the render loop draws into. Draw is only ever called
// from the render goroutine.
type Canvas interface {
	Open() error
	Draw(Scene) error
	// Closed is closed when the user dismisses the window.
	Closed() <-chan struct{}
	Close() error
}

// Scene is one redraw. Colors are normalized and in device channel order.
type Scene struct {
	Locations     []pixel.Vec3
	Colors        []pixel.Color
	BoundsChanged bool
	Bounds        Bounds
	Frame         int
}

// Points returns the LED positions to plot. Before any locations arrive the
// LEDs are laid out on a line so colors are still visible.
func (s Scene) Points() []pixel.Vec3 {
	if s.Locations != nil {
		return s.Locations
	}
	return layout.Strip(len(s.Colors)).Positions()
}

// Bounds is an axis aligned box.
type Bounds struct {
	Min, Max pixel.Vec3
}

// ComputeBounds returns the box around locs; the zero box when empty.
func ComputeBounds(locs []pixel.Vec3) Bounds {
	if len(locs) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: locs[0], Max: locs[0]}
	for _, p := range locs[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b
}

// Extent is the box size per axis, which is also the box aspect of the view.
func (b Bounds) Extent() pixel.Vec3 {
	return pixel.Vec3{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y, Z: b.Max.Z - b.Min.Z}
}

func (b Bounds) Center() pixel.Vec3 {
	return pixel.Vec3{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2, Z: (b.Min.Z + b.Max.Z) / 2}
}

// Nop is a Canvas that remembers what it was asked to draw.
type Nop struct {
	mu     sync.Mutex
	draws  int
	last   Scene
	failOn int

	closed    chan struct{}
	closeOnce sync.Once
	released  bool
}

func NewNop() *Nop { return &Nop{closed: make(chan struct{})} }

func (n *Nop) Open() error { return nil }

func (n *Nop) Draw(s Scene) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.draws++
	n.last = s
	if n.failOn > 0 && n.draws >= n.failOn {
		return errDrawFailed
	}
	return nil
}

func (n *Nop) Closed() <-chan struct{} { return n.closed }

func (n *Nop) Close() error {
	n.mu.Lock()
	n.released = true
	n.mu.Unlock()
	return nil
}

// CloseWindow behaves like the user closing the window.
func (n *Nop) CloseWindow() {
	n.closeOnce.Do(func() { close(n.closed) })
}

// FailAfter makes the k-th and later draws fail.
func (n *Nop) FailAfter(k int) {
	n.mu.Lock()
	n.failOn = k
	n.mu.Unlock()
}

func (n *Nop) Draws() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.draws
}

func (n *Nop) Last() Scene {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Released reports whether Close was called.
func (n *Nop) Released() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.released
}
