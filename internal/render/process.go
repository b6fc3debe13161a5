// Package render runs the LED visualization in its own goroutine. The driver
// talks to it only through copied Commands pushed into a Mailbox.
package render

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

const DefaultPoll = 500 * time.Microsecond

var errDrawFailed = errors.New("draw failed")

type Options struct {
	// Poll is the pause between inbox checks. Zero means DefaultPoll.
	Poll time.Duration
}

// Process owns the location and color caches and the canvas. Only its
// goroutine touches them.
type Process struct {
	canvas Canvas
	inbox  *Mailbox
	poll   time.Duration

	done    chan struct{}
	err     error
	alive   atomic.Bool
	closing atomic.Bool
	redraws atomic.Int64

	locs         []pixel.Vec3
	colors       []pixel.Color
	bounds       Bounds
	boundsDirty  bool
	scatterDirty bool
}

// Start opens the canvas and runs the render loop.
func Start(c Canvas, opts Options) (*Process, error) {
	if c == nil {
		return nil, errors.New("render: nil canvas")
	}
	if err := c.Open(); err != nil {
		return nil, fmt.Errorf("open canvas: %w", err)
	}
	p := &Process{
		canvas: c,
		inbox:  NewMailbox(),
		poll:   opts.Poll,
		done:   make(chan struct{}),
	}
	if p.poll <= 0 {
		p.poll = DefaultPoll
	}
	p.alive.Store(true)
	go p.run()
	return p, nil
}

// Send queues cmd without blocking. Commands sent after the loop ended are
// discarded.
func (p *Process) Send(cmd Command) {
	select {
	case <-p.done:
		return
	default:
	}
	p.inbox.Push(cmd)
}

func (p *Process) Alive() bool { return p.alive.Load() }

func (p *Process) Done() <-chan struct{} { return p.done }

// Closing reports whether the loop ended because the user closed the window.
func (p *Process) Closing() bool { return p.closing.Load() }

func (p *Process) Redraws() int { return int(p.redraws.Load()) }

// Wait blocks until the loop has ended and returns its failure, if any.
// There is no timeout: a canvas that never returns hangs the caller.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

func (p *Process) run() {
	// runs after done is closed: nothing queued past Exit is kept
	defer p.inbox.Drain()
	defer close(p.done)
	defer p.alive.Store(false)
	defer func() {
		if err := p.canvas.Close(); err != nil {
			log.Debug().Err(err).Msg("render: canvas close")
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			p.err = fmt.Errorf("render: panic: %v", r)
		}
	}()

	tick := time.NewTicker(p.poll)
	defer tick.Stop()

	for {
		if p.apply(p.inbox.Drain()) {
			return
		}
		if err := p.redraw(); err != nil {
			p.err = fmt.Errorf("render: %w", err)
			return
		}
		select {
		case <-p.canvas.Closed():
			p.closing.Store(true)
			log.Debug().Msg("render: window closed")
			return
		case <-tick.C:
		case <-p.inbox.Ready():
		}
	}
}

// apply runs cmds in order and reports whether an Exit was seen.
func (p *Process) apply(cmds []Command) bool {
	for _, c := range cmds {
		switch c.Kind {
		case KindSetLocations:
			p.locs = c.Locations
			p.bounds = ComputeBounds(c.Locations)
			p.boundsDirty = true
		case KindSetPixels:
			p.colors = c.Pixels
			p.scatterDirty = true
		case KindExit:
			return true
		}
	}
	return false
}

func (p *Process) redraw() error {
	if !p.boundsDirty && !p.scatterDirty {
		return nil
	}
	s := Scene{
		Locations:     p.locs,
		Colors:        p.colors,
		BoundsChanged: p.boundsDirty,
		Bounds:        p.bounds,
		Frame:         int(p.redraws.Load()) + 1,
	}
	if p.locs == nil {
		s.Bounds = ComputeBounds(s.Points())
	}
	p.boundsDirty = false
	p.scatterDirty = false
	if err := p.canvas.Draw(s); err != nil {
		return err
	}
	p.redraws.Add(1)
	return nil
}
