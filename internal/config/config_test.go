package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neopixelsim/internal/simerr"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 30*time.Millisecond, c.ShowDelayDuration())
	assert.Equal(t, time.Duration(0), c.Budget())
	assert.Equal(t, GUITerminal, c.Window())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(p, []byte("pixels: 8\ncolor_order: rgb\nsimulate_seconds: 1.5\nno_gui: true\n"), 0644))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Pixels)
	assert.Equal(t, "rgb", c.ColorOrder)
	assert.Equal(t, 1500*time.Millisecond, c.Budget())
	assert.Equal(t, 0.03, c.ShowDelay, "default kept")
	assert.Equal(t, "", c.Window())
	require.NoError(t, c.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sim.yaml")
	in := Default()
	in.Dim = Dim{X: 2, Y: 2, Z: 2}
	in.Pixels = 8
	require.NoError(t, Save(p, in))

	out, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSPIClock(t *testing.T) {
	c := Default()
	for _, hz := range []int{0, 2500000} {
		c.SPI.SpeedHz = hz
		assert.NoError(t, c.Validate(), "%d", hz)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, simerr.ErrConfig)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("pixels: [1"), 0644))
	_, err = Load(p)
	assert.ErrorIs(t, err, simerr.ErrConfig)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"negative delay":     func(c *Config) { c.ShowDelay = -0.1 },
		"negative budget":    func(c *Config) { c.SimulateSeconds = -1 },
		"zero pixels":        func(c *Config) { c.Pixels = 0 },
		"order":              func(c *Config) { c.ColorOrder = "BGR" },
		"pacing":             func(c *Config) { c.Pacing = "sleepy" },
		"sink":               func(c *Config) { c.Sink = "usb" },
		"gui and no gui":     func(c *Config) { c.GUI = GUIWeb; c.NoGUI = true },
		"unknown gui":        func(c *Config) { c.GUI = "qt" },
		"dim mismatch":       func(c *Config) { c.Dim = Dim{X: 3, Y: 3, Z: 3} },
		"dim and coords":     func(c *Config) { c.Dim = Dim{X: 10, Y: 10, Z: 1}; c.CoordinatesPath = "a.csv" },
		"partial dim":        func(c *Config) { c.Dim = Dim{X: 100} },
		"mqtt needs topic":   func(c *Config) { c.Sink = "mqtt"; c.MQTT.Topic = "" },
		"negative budget mA": func(c *Config) { c.Limit.BudgetMA = -5 },
		"knee of one":        func(c *Config) { c.Limit.Knee = 1 },
		"spi clock":          func(c *Config) { c.SPI.SpeedHz = 3200000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.ErrorIs(t, c.Validate(), simerr.ErrConfig)
		})
	}
}
