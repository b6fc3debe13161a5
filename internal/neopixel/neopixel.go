// Package neopixel is the simulated pixel driver animation code talks to.
package neopixel

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/neopixelsim/internal/diagnostics"
	"github.com/coreman2200/neopixelsim/internal/lifecycle"
	"github.com/coreman2200/neopixelsim/internal/pacer"
	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/recorder"
	"github.com/coreman2200/neopixelsim/internal/render"
	"github.com/coreman2200/neopixelsim/internal/sink"
)

type Options struct {
	Count int
	Order pixel.ChannelOrder

	// MinInterval is the shortest time between two presents; 0 disables pacing.
	MinInterval time.Duration
	Pacing      pacer.Strategy
	// Budget stops the driver after this long; 0 runs until told otherwise.
	Budget time.Duration

	// TracePath enables the animation trace and names the CSV written at shutdown.
	TracePath string

	// Canvas is the visualizer window. Nil runs headless.
	Canvas render.Canvas
	Poll   time.Duration

	Sink      sink.Sink
	Locations []pixel.Vec3

	// Releasers run last during shutdown, after the trace is saved.
	Releasers []func() error
	Notify    diag.Notifier
}

// NeoPixel buffers colors, paces and records presents, and feeds the render
// process and byte sink. Methods are safe for concurrent use.
type NeoPixel struct {
	mu     sync.Mutex
	buf    *pixel.Buffer
	pacer  *pacer.Pacer
	rec    *recorder.Recorder
	proc   *render.Process
	coord  *lifecycle.Coordinator
	sink   sink.Sink
	notify diag.Notifier
	warned bool
	frames int
}

func New(opts Options) (*NeoPixel, error) {
	buf, err := pixel.NewBuffer(opts.Count, opts.Order)
	if err != nil {
		return nil, err
	}
	np := &NeoPixel{
		buf:    buf,
		pacer:  pacer.New(opts.MinInterval, opts.Pacing),
		rec:    recorder.New(opts.TracePath != "", opts.Count),
		sink:   opts.Sink,
		notify: opts.Notify,
	}
	if np.notify == nil {
		np.notify = diag.NotifierFunc(diag.Log)
	}
	if opts.Locations != nil {
		if err := buf.SetLocations(opts.Locations); err != nil {
			return nil, err
		}
	}

	var rend lifecycle.Renderer
	if opts.Canvas != nil {
		proc, err := render.Start(opts.Canvas, render.Options{Poll: opts.Poll})
		if err != nil {
			return nil, err
		}
		np.proc = proc
		rend = proc
		if buf.TakeLocationsDirty() {
			proc.Send(render.LocationsCommand(buf.Locations()))
		}
	}

	releasers := append([]func() error{}, opts.Releasers...)
	if np.sink != nil {
		releasers = append([]func() error{np.sink.Close}, releasers...)
	}
	np.coord = lifecycle.New(lifecycle.Options{
		Budget:          opts.Budget,
		Start:           time.Now(),
		Renderer:        rend,
		RequireRenderer: opts.Canvas != nil,
		Recorder:        np.rec,
		TracePath:       opts.TracePath,
		Releasers:       releasers,
		Notify:          np.notify,
	})
	log.Debug().Int("pixels", opts.Count).Stringer("order", opts.Order).
		Dur("min_interval", opts.MinInterval).Bool("gui", opts.Canvas != nil).Msg("neopixel ready")
	return np, nil
}

func (np *NeoPixel) Len() int { return np.buf.Len() }

func (np *NeoPixel) Order() pixel.ChannelOrder { return np.buf.Order() }

// Set stores c (0..255 per channel) for LED i.
func (np *NeoPixel) Set(i int, c pixel.Color) error {
	np.mu.Lock()
	defer np.mu.Unlock()
	return np.buf.Set(i, c)
}

// Fill sets every LED to c.
func (np *NeoPixel) Fill(c pixel.Color) {
	np.mu.Lock()
	defer np.mu.Unlock()
	np.buf.Fill(c)
}

// SetLocations replaces every LED position and forwards them to the renderer.
func (np *NeoPixel) SetLocations(coords []pixel.Vec3) error {
	np.mu.Lock()
	defer np.mu.Unlock()
	if err := np.buf.SetLocations(coords); err != nil {
		return err
	}
	np.warned = false
	np.pushLocations()
	return nil
}

// SetLocationRows is SetLocations for untyped rows of three numbers.
func (np *NeoPixel) SetLocationRows(rows [][]float64) error {
	np.mu.Lock()
	defer np.mu.Unlock()
	if err := np.buf.SetLocationRows(rows); err != nil {
		return err
	}
	np.warned = false
	np.pushLocations()
	return nil
}

func (np *NeoPixel) Locations() []pixel.Vec3 {
	np.mu.Lock()
	defer np.mu.Unlock()
	return np.buf.Locations()
}

// Present shows the current buffer: wait for the frame gate, record the
// frame, hand it to the renderer and sink, then evaluate the exit triggers.
// It returns a *lifecycle.StopError once the driver has stopped; callers
// should end their animation loop on any error wrapping lifecycle.ErrStopped.
func (np *NeoPixel) Present() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.coord.State() != lifecycle.Active {
		return np.coord.Check(time.Now())
	}
	if !np.buf.HasLocations() && !np.warned {
		np.warned = true
		np.notify.Push(diag.Diagnostic{
			Severity:       diag.Warn,
			Code:           diag.CodeLocationsUnset,
			Summary:        "the LED locations have not been set",
			SuggestedFixes: []string{"pass --coordinates-path", "call SetLocations before presenting"},
		})
	}

	at := np.pacer.Gate()
	if np.rec.Enabled() {
		np.rec.Capture(at, np.buf.Submitted())
	}
	if np.proc != nil {
		if np.buf.TakeLocationsDirty() {
			np.proc.Send(render.LocationsCommand(np.buf.Locations()))
		}
		np.proc.Send(render.PixelsCommand(np.buf.Stored()))
	}
	np.frames++

	var sinkErr error
	if np.sink != nil {
		if err := np.sink.Write(np.buf.Bytes()); err != nil {
			sinkErr = fmt.Errorf("sink: %w", err)
		}
	}
	if err := np.coord.Check(time.Now()); err != nil {
		return err
	}
	return sinkErr
}

// Frames counts presents so far.
func (np *NeoPixel) Frames() int {
	np.mu.Lock()
	defer np.mu.Unlock()
	return np.frames
}

// RequestExit makes the next Present stop the driver. Safe from signal handlers.
func (np *NeoPixel) RequestExit() { np.coord.RequestExit() }

func (np *NeoPixel) State() lifecycle.State { return np.coord.State() }

// Close stops the driver if it is still running and saves the trace. A clean
// stop returns nil.
func (np *NeoPixel) Close() error {
	err := np.coord.Shutdown(lifecycle.ExplicitExit)
	if _, clean := err.(*lifecycle.StopError); clean {
		return nil
	}
	return err
}

func (np *NeoPixel) pushLocations() {
	if np.proc != nil && np.buf.TakeLocationsDirty() {
		np.proc.Send(render.LocationsCommand(np.buf.Locations()))
	}
}
