// Package recorder accumulates frame timings and colors and writes them as
// an animation trace CSV.
package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// Frame is one captured present.
type Frame struct {
	ElapsedMS float64
	Colors    []pixel.Color // normalized, in submission order
}

// Recorder is safe for concurrent use.
type Recorder struct {
	enabled bool
	pixels  int

	mu      sync.Mutex
	frames  []Frame
	last    time.Time
	flushed bool
}

// New returns a recorder for pixels LEDs; the count sizes the header even
// when nothing was captured.
func New(enabled bool, pixels int) *Recorder {
	return &Recorder{enabled: enabled, pixels: pixels}
}

func (r *Recorder) Enabled() bool { return r.enabled }

// Capture appends a frame stamped at. The first capture records 0 ms so that
// the trace has exactly one row per present.
func (r *Recorder) Capture(at time.Time, colors []pixel.Color) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flushed {
		return
	}

	elapsed := 0.0
	if !r.last.IsZero() {
		elapsed = float64(at.Sub(r.last)) / float64(time.Millisecond)
	}
	r.last = at

	cp := make([]pixel.Color, len(colors))
	copy(cp, colors)
	r.frames = append(r.frames, Frame{ElapsedMS: elapsed, Colors: cp})
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *Recorder) Flushed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushed
}

// Flush writes the trace to path once. Later calls, and calls on a disabled
// recorder, do nothing. The file is written beside path and renamed into place.
func (r *Recorder) Flush(path string) error {
	if !r.enabled {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flushed {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeFrames(tmp, r.pixels, r.frames); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write trace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close trace: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename trace: %w", err)
	}
	r.flushed = true
	return nil
}

// WriteCSV writes the trace CSV to w without marking the recorder flushed.
func (r *Recorder) WriteCSV(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeFrames(w, r.pixels, r.frames)
}

// Header returns FRAME_TIME,R_0,G_0,B_0,R_1,... for n LEDs.
func Header(n int) []string {
	h := make([]string, 0, 1+3*n)
	h = append(h, "FRAME_TIME")
	for i := 0; i < n; i++ {
		s := strconv.Itoa(i)
		h = append(h, "R_"+s, "G_"+s, "B_"+s)
	}
	return h
}

func writeFrames(w io.Writer, n int, frames []Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(n)); err != nil {
		return err
	}
	row := make([]string, 0, 1+3*n)
	for _, f := range frames {
		row = row[:0]
		row = append(row, strconv.FormatFloat(f.ElapsedMS, 'f', 3, 64))
		for _, c := range f.Colors {
			row = append(row,
				strconv.Itoa(pixel.Channel255(c.R)),
				strconv.Itoa(pixel.Channel255(c.G)),
				strconv.Itoa(pixel.Channel255(c.B)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
