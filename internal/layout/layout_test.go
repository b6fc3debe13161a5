package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

func TestSerpentineIndex(t *testing.T) {
	l := Layout{Dim: Dim{X: 3, Y: 2, Z: 2}, Order: Serpentine{XFlipEveryRow: true, YFlipEveryPanel: true}}
	assert.Equal(t, 12, l.Count())
	assert.Equal(t, 0, l.Index(0, 0, 0))
	assert.Equal(t, 5, l.Index(0, 1, 0)) // row 1 runs backwards
	assert.Equal(t, 3, l.Index(2, 1, 0))
	assert.Equal(t, 9, l.Index(0, 0, 1)) // panel 1 runs top-down
}

func TestPositionsCoverEveryIndex(t *testing.T) {
	l := Layout{Dim: Dim{X: 4, Y: 3, Z: 2}, Order: Serpentine{XFlipEveryRow: true}, PitchMM: 10, PanelGapMM: 50}
	pos := l.Positions()
	require.Len(t, pos, 24)

	seen := map[pixel.Vec3]bool{}
	for _, p := range pos {
		seen[p] = true
	}
	assert.Len(t, seen, 24, "positions must be distinct")
	assert.Equal(t, pixel.Vec3{X: 30, Y: 10, Z: 0}, pos[l.Index(3, 1, 0)])
	assert.Equal(t, pixel.Vec3{X: 0, Y: 0, Z: 60}, pos[l.Index(0, 0, 1)])
}

func TestStrip(t *testing.T) {
	pos := Strip(3).Positions()
	assert.Equal(t, []pixel.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}, pos)
}

func TestParseDim(t *testing.T) {
	d, err := ParseDim("5, 26,5")
	require.NoError(t, err)
	assert.Equal(t, Dim{5, 26, 5}, d)

	for _, bad := range []string{"5,5", "a,b,c", "0,1,1", ""} {
		_, err := ParseDim(bad)
		assert.ErrorIs(t, err, simerr.ErrConfig, bad)
	}
}
