package snapshot

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/render"
)

func TestDrawSavesScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	c := New(Options{Path: path, Width: 64, Height: 64, Radius: 6})
	require.NoError(t, c.Open())

	locs := []pixel.Vec3{{X: 1, Y: 1, Z: 1}}
	require.NoError(t, c.Draw(render.Scene{
		Locations: locs,
		Colors:    []pixel.Color{{R: 1}},
		Bounds:    render.ComputeBounds(locs),
	}))
	require.NoError(t, c.Close())
	assert.Equal(t, 1, c.Draws())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	r, g, b, _ := img.At(32, 32).RGBA()
	assert.Greater(t, r, uint32(0xc000))
	assert.Less(t, g, uint32(0x4000))
	assert.Less(t, b, uint32(0x4000))

	r, _, _, _ = img.At(2, 2).RGBA()
	assert.Less(t, r, uint32(0x4000), "background")
}

func TestSaveEvery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	c := New(Options{Path: path, Width: 16, Height: 16, Every: 2})
	require.NoError(t, c.Open())

	s := render.Scene{Colors: []pixel.Color{{G: 1}}}
	require.NoError(t, c.Draw(s))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, c.Draw(s))
	_, err = os.Stat(path)
	assert.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestOpenNeedsPath(t *testing.T) {
	assert.Error(t, New(Options{}).Open())
	select {
	case <-New(Options{Path: "x"}).Closed():
		t.Fatal("snapshot canvas never closes on its own")
	default:
	}
}
