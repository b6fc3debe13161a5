// Package lifecycle decides when the driver stops and tears it down exactly once.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/neopixelsim/internal/diagnostics"
	"github.com/coreman2200/neopixelsim/internal/render"
)

type State int32

const (
	Active State = iota
	Finalizing
	Closed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finalizing:
		return "finalizing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Reason int

const (
	NoReason Reason = iota
	TimeBudgetExceeded
	RendererClosed
	ExplicitExit
)

func (r Reason) String() string {
	switch r {
	case TimeBudgetExceeded:
		return "time budget exceeded"
	case RendererClosed:
		return "renderer closed"
	case ExplicitExit:
		return "explicit exit"
	}
	return "none"
}

// ErrStopped is wrapped by every StopError.
var ErrStopped = errors.New("neopixel stopped")

// StopError tells the animation loop to stop. It is not a failure.
type StopError struct {
	Reason Reason
}

func (e *StopError) Error() string { return fmt.Sprintf("%v: %v", ErrStopped, e.Reason) }

func (e *StopError) Unwrap() error { return ErrStopped }

// ReasonOf extracts the stop reason from err.
func ReasonOf(err error) (Reason, bool) {
	var se *StopError
	if errors.As(err, &se) {
		return se.Reason, true
	}
	return NoReason, false
}

// Renderer is the part of render.Process the coordinator drives.
type Renderer interface {
	Alive() bool
	Send(render.Command)
	Wait() error
}

// Flusher is the part of recorder.Recorder the coordinator drives.
type Flusher interface {
	Enabled() bool
	Flush(path string) error
}

type Options struct {
	// Budget stops the driver once this much time has passed since Start. Zero disables it.
	Budget time.Duration
	Start  time.Time

	Renderer        Renderer
	RequireRenderer bool

	Recorder  Flusher
	TracePath string

	// Releasers free OS resources last. Their errors are logged and dropped.
	Releasers []func() error

	Notify diag.Notifier
}

type Coordinator struct {
	opts Options

	state   atomic.Int32
	exitReq atomic.Bool

	once   sync.Once
	mu     sync.Mutex
	reason Reason
	finErr error
}

func New(opts Options) *Coordinator {
	if opts.Start.IsZero() {
		opts.Start = time.Now()
	}
	return &Coordinator{opts: opts}
}

func (c *Coordinator) State() State { return State(c.state.Load()) }

func (c *Coordinator) Reason() Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// RequestExit asks for an ExplicitExit at the next Check. Safe from any goroutine.
func (c *Coordinator) RequestExit() { c.exitReq.Store(true) }

// Check evaluates the exit triggers in order: time budget, renderer gone,
// explicit request. The first one that fires runs Shutdown. Once the
// coordinator has left Active every call returns a *StopError.
func (c *Coordinator) Check(now time.Time) error {
	if c.State() != Active {
		return c.stopErr()
	}
	if r := c.trigger(now); r != NoReason {
		return c.Shutdown(r)
	}
	return nil
}

func (c *Coordinator) trigger(now time.Time) Reason {
	if c.opts.Budget > 0 && now.Sub(c.opts.Start) >= c.opts.Budget {
		return TimeBudgetExceeded
	}
	if c.opts.RequireRenderer && (c.opts.Renderer == nil || !c.opts.Renderer.Alive()) {
		return RendererClosed
	}
	if c.exitReq.Load() {
		return ExplicitExit
	}
	return NoReason
}

// Shutdown finalizes once: stop and join the renderer, flush the trace, then
// release OS resources. Later calls return the same outcome without side effects.
func (c *Coordinator) Shutdown(reason Reason) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		c.state.Store(int32(Finalizing))
		log.Debug().Stringer("reason", reason).Msg("lifecycle: finalizing")

		err := c.finalize(reason)

		c.mu.Lock()
		c.finErr = err
		c.mu.Unlock()
		c.state.Store(int32(Closed))
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	stop := &StopError{Reason: c.reason}
	if c.finErr != nil {
		return errors.Join(stop, c.finErr)
	}
	return stop
}

func (c *Coordinator) finalize(reason Reason) error {
	var errs []error

	if r := c.opts.Renderer; r != nil {
		if r.Alive() {
			r.Send(render.ExitCommand())
		}
		if err := r.Wait(); err != nil {
			c.notify(diag.Diagnostic{Severity: diag.Err, Code: diag.CodeRendererFailed, Summary: "renderer failed", Detail: err.Error()})
		} else if reason == RendererClosed {
			c.notify(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeRendererClosed, Summary: "window closed"})
		}
	}

	if rec := c.opts.Recorder; rec != nil && rec.Enabled() && c.opts.TracePath != "" {
		if err := rec.Flush(c.opts.TracePath); err != nil {
			errs = append(errs, fmt.Errorf("save animation trace: %w", err))
			c.notify(diag.Diagnostic{Severity: diag.Err, Code: diag.CodeTraceFailed, Summary: "animation trace not saved", Detail: err.Error()})
		} else {
			c.notify(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeTraceSaved, Summary: "animation trace saved",
				Evidence: map[string]any{"path": c.opts.TracePath}})
		}
	}

	c.notify(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeStopped, Summary: "driver stopped",
		Evidence: map[string]any{"reason": reason.String(), "uptime_s": time.Since(c.opts.Start).Seconds()}})

	// releasers may take the log destination away; nothing is notified after them
	for _, rel := range c.opts.Releasers {
		if rel == nil {
			continue
		}
		if err := rel(); err != nil {
			log.Debug().Err(err).Msg("lifecycle: release")
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) stopErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &StopError{Reason: c.reason}
}

func (c *Coordinator) notify(d diag.Diagnostic) {
	if c.opts.Notify != nil {
		c.opts.Notify.Push(d)
	}
}
