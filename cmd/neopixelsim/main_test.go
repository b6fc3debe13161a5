package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neopixelsim/internal/config"
	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
	"github.com/coreman2200/neopixelsim/internal/sink"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// resolve runs the run command with a stub executor and returns what it got.
func resolve(t *testing.T, args ...string) (*config.Config, []pixel.Vec3, error) {
	t.Helper()
	var (
		gotCfg  *config.Config
		gotLocs []pixel.Vec3
	)
	cmd := runCommand(func(_ context.Context, c *config.Config, l []pixel.Vec3) error {
		gotCfg, gotLocs = c, l
		return nil
	})
	_, err := execute(t, cmd, args...)
	return gotCfg, gotLocs, err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestRunDefaults(t *testing.T) {
	cfg, locs, err := resolve(t)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Pixels)
	assert.Equal(t, "random-fade", cfg.Animation)
	assert.Equal(t, 0.03, cfg.ShowDelay)
	assert.Equal(t, config.GUITerminal, cfg.Window())
	assert.Nil(t, locs)
}

func TestRunFlagsOverrideOnlyWhenSet(t *testing.T) {
	path := writeFile(t, "sim.yaml", "pixels: 12\nshow_delay: 0.5\npacing: hybrid\ngui: png\n")

	cfg, _, err := resolve(t, "--config", path, "--pixels", "7", "--no-gui", "solid")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Pixels)
	assert.Equal(t, 0.5, cfg.ShowDelay)
	assert.Equal(t, "hybrid", cfg.Pacing)
	assert.Equal(t, "solid", cfg.Animation)
	assert.Equal(t, "", cfg.Window())
}

func TestRunCoordinatesSetPixelCount(t *testing.T) {
	path := writeFile(t, "coords.csv", "0,0,0\n1,0,0\n2,0,1\n")

	cfg, locs, err := resolve(t, "--coordinates-path", path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pixels)
	assert.Len(t, locs, 3)

	_, _, err = resolve(t, "--coordinates-path", path, "--pixels", "4")
	assert.ErrorIs(t, err, simerr.ErrConfig)
}

func TestRunDimLattice(t *testing.T) {
	path := writeFile(t, "cube.yaml", "pixels: 8\ndim: {x: 2, y: 2, z: 2}\n")
	cfg, locs, err := resolve(t, "--config", path, "--no-gui")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pixels)
	require.Len(t, locs, 8)
	assert.Equal(t, pixel.Vec3{X: 1, Y: 1, Z: 1}, locs[7])
}

func TestRunRejectsBadFlags(t *testing.T) {
	cases := map[string][]string{
		"gui and no-gui":   {"--gui", "web", "--no-gui"},
		"negative delay":   {"--show-delay", "-1"},
		"negative budget":  {"--simulate-seconds", "-2"},
		"bad order":        {"--channel-order", "BRG"},
		"bad pacing":       {"--pacing", "sleepy"},
		"bad sink":         {"--sink", "serial"},
		"bad gui":          {"--gui", "x11"},
		"missing config":   {"--config", filepath.Join(t.TempDir(), "none.yaml")},
		"zero pixel strip": {"--pixels", "0"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := resolve(t, args...)
			assert.ErrorIs(t, err, simerr.ErrConfig)
		})
	}
}

func TestRunBadCoordinateFile(t *testing.T) {
	path := writeFile(t, "coords.csv", "0,0\n")
	_, _, err := resolve(t, "--coordinates-path", path)
	assert.ErrorIs(t, err, simerr.ErrFormat)
}

func TestRunHeadlessWritesTrace(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "trace.csv")
	_, err := execute(t, newRootCmd(), "run", "solid",
		"--no-gui", "--pixels", "4", "--show-delay", "0.002",
		"--simulate-seconds", "0.05", "--animation-csv-save-path", trace,
		"--log-level", "error")
	require.NoError(t, err)

	f, err := os.Open(trace)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)
	assert.Len(t, rows[0], 1+3*4)
	assert.Equal(t, "FRAME_TIME", rows[0][0])
	assert.Equal(t, "0.000", rows[1][0])
}

func TestRunUnknownAnimation(t *testing.T) {
	_, err := execute(t, newRootCmd(), "run", "disco", "--no-gui", "--log-level", "error")
	assert.ErrorIs(t, err, simerr.ErrConfig)
}

func TestOpenSink(t *testing.T) {
	cfg := config.Default()
	s, err := openSink(cfg, pixel.GRB)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.Sink = "log"
	s, err = openSink(cfg, pixel.GRB)
	require.NoError(t, err)
	assert.IsType(t, &sink.Log{}, s)

	cfg.Limit = sink.Limit{BudgetMA: 500}
	s, err = openSink(cfg, pixel.GRB)
	require.NoError(t, err)
	require.IsType(t, &sink.Limited{}, s)
	assert.IsType(t, &sink.Log{}, s.(*sink.Limited).Next)
}

func TestList(t *testing.T) {
	out, err := execute(t, newRootCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "random-fade\n")
	assert.Contains(t, out, "solid\n")
}

func TestCoordsLatticeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.csv")
	out, err := execute(t, newRootCmd(), "coords", "--lattice", "2,2,2", "--out", path, "--pitch-mm", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 8 positions")

	out, err = execute(t, newRootCmd(), "coords", path)
	require.NoError(t, err)
	assert.Contains(t, out, "8 leds")
	assert.Contains(t, out, "max 10.000 10.000 10.000")
}

func TestCoordsNeedsInput(t *testing.T) {
	_, err := execute(t, newRootCmd(), "coords")
	assert.ErrorIs(t, err, simerr.ErrConfig)

	_, err = execute(t, newRootCmd(), "coords", "--lattice", "2,2,2")
	assert.ErrorIs(t, err, simerr.ErrConfig)
}
