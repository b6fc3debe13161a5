// Package tui draws the LED scatter in the terminal.
package tui

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neopixelsim/internal/render"
)

// Canvas runs a bubbletea program. Quitting the program counts as closing
// the window.
type Canvas struct {
	opts []tea.ProgramOption

	prog   *tea.Program
	closed chan struct{}
	err    error
	once   sync.Once
}

// New returns a canvas using the alt screen. Extra options are appended, so
// tests can swap input and output.
func New(opts ...tea.ProgramOption) *Canvas {
	return &Canvas{
		opts:   append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}, opts...),
		closed: make(chan struct{}),
	}
}

func (c *Canvas) Open() error {
	if c.prog != nil {
		return errors.New("tui: already open")
	}
	c.prog = tea.NewProgram(NewModel(), c.opts...)
	go func() {
		defer close(c.closed)
		if _, err := c.prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			c.err = err
			log.Error().Err(err).Msg("tui: program")
		}
	}()
	return nil
}

// Draw hands the scene to the program. Scene slices are never mutated after
// the render loop builds them, so they are shared as-is.
func (c *Canvas) Draw(s render.Scene) error {
	select {
	case <-c.closed:
		return nil
	default:
	}
	c.prog.Send(sceneMsg(s))
	return nil
}

func (c *Canvas) Closed() <-chan struct{} { return c.closed }

// Close quits the program and waits until the terminal is restored.
func (c *Canvas) Close() error {
	if c.prog == nil {
		return nil
	}
	c.once.Do(c.prog.Quit)
	<-c.closed
	return c.err
}
