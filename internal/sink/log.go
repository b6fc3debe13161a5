package sink

import (
	"github.com/rs/zerolog/log"
)

// Log prints a compact summary of each frame (first LED and average), useful
// for headless runs.
type Log struct {
	Count int
	// Every logs one frame out of this many; 0 or 1 logs all of them.
	Every int
}

func (d *Log) Write(rgb []byte) error {
	d.Count++
	if d.Every > 1 && d.Count%d.Every != 0 {
		return nil
	}
	var r, g, b float64
	for i := 0; i+2 < len(rgb); i += 3 {
		r += float64(rgb[i])
		g += float64(rgb[i+1])
		b += float64(rgb[i+2])
	}
	n := float64(len(rgb) / 3)
	if n == 0 {
		n = 1
	}
	ev := log.Info().Int("frame", d.Count).
		Floats64("avg", []float64{r / n, g / n, b / n})
	if len(rgb) >= 3 {
		ev = ev.Ints("first", []int{int(rgb[0]), int(rgb[1]), int(rgb[2])})
	}
	ev.Msg("sink frame")
	return nil
}

func (d *Log) Close() error {
	log.Info().Int("frames", d.Count).Msg("sink closed")
	return nil
}
