// Package snapshot renders the LED scatter to a PNG file.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/gogpu/gg"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neopixelsim/internal/render"
)

type Options struct {
	Path          string
	Width, Height int
	// Every saves the image after this many draws; 0 saves only on Close.
	Every  int
	Radius float64
	Camera render.Camera
}

// Canvas draws into an offscreen gg context. It has no window, so it is
// never closed by a user.
type Canvas struct {
	opts   Options
	dc     *gg.Context
	draws  int
	closed chan struct{}
}

func New(opts Options) *Canvas {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.Radius <= 0 {
		opts.Radius = 4
	}
	if opts.Camera == (render.Camera{}) {
		opts.Camera = render.DefaultCamera()
	}
	return &Canvas{opts: opts, closed: make(chan struct{})}
}

func (c *Canvas) Open() error {
	if c.opts.Path == "" {
		return errors.New("snapshot: empty output path")
	}
	c.dc = gg.NewContext(c.opts.Width, c.opts.Height)
	c.dc.ClearWithColor(gg.RGB(0.04, 0.04, 0.06))
	return nil
}

func (c *Canvas) Draw(s render.Scene) error {
	w, h := float64(c.opts.Width), float64(c.opts.Height)
	c.dc.ClearWithColor(gg.RGB(0.04, 0.04, 0.06))
	for _, p := range c.opts.Camera.ProjectAll(s.Points(), s.Bounds, w, h) {
		if p.Index >= len(s.Colors) {
			continue
		}
		col := s.Colors[p.Index].Clamped()
		c.dc.SetRGB(col.R, col.G, col.B)
		c.dc.DrawCircle(p.X, p.Y, c.opts.Radius)
		if err := c.dc.Fill(); err != nil {
			return fmt.Errorf("snapshot: fill: %w", err)
		}
	}
	c.draws++
	if c.opts.Every > 0 && c.draws%c.opts.Every == 0 {
		return c.save()
	}
	return nil
}

func (c *Canvas) Closed() <-chan struct{} { return c.closed }

func (c *Canvas) Close() error {
	if c.dc == nil {
		return nil
	}
	err := c.save()
	_ = c.dc.Close()
	c.dc = nil
	return err
}

func (c *Canvas) Draws() int { return c.draws }

func (c *Canvas) save() error {
	if err := c.dc.SavePNG(c.opts.Path); err != nil {
		return fmt.Errorf("snapshot: save %s: %w", c.opts.Path, err)
	}
	log.Debug().Str("path", c.opts.Path).Int("draws", c.draws).Msg("snapshot saved")
	return nil
}
