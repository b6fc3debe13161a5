package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/neopixelsim/internal/animation"
	"github.com/coreman2200/neopixelsim/internal/config"
	"github.com/coreman2200/neopixelsim/internal/coords"
	diag "github.com/coreman2200/neopixelsim/internal/diagnostics"
	"github.com/coreman2200/neopixelsim/internal/layout"
	"github.com/coreman2200/neopixelsim/internal/neopixel"
	"github.com/coreman2200/neopixelsim/internal/pacer"
	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/preview"
	"github.com/coreman2200/neopixelsim/internal/render"
	"github.com/coreman2200/neopixelsim/internal/render/snapshot"
	"github.com/coreman2200/neopixelsim/internal/render/tui"
	"github.com/coreman2200/neopixelsim/internal/simerr"
	"github.com/coreman2200/neopixelsim/internal/sink"
)

type runFlags struct {
	configPath string

	coordinatesPath string
	simulateSeconds float64
	csvPath         string
	showDelay       float64
	noGUI           bool

	pixels       int
	channelOrder string
	gui          string
	pacing       string
	sink         string
	addr         string
	pngPath      string
	logLevel     string
	logFile      string
	seed         int64
}

func newRunCmd() *cobra.Command { return runCommand(run) }

func runCommand(exec func(context.Context, *config.Config, []pixel.Vec3) error) *cobra.Command {
	f := &runFlags{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "run [animation]",
		Short: "Run an animation on the simulated strip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, locs, err := resolveConfig(cmd, f, args)
			if err != nil {
				return err
			}
			return exec(cmd.Context(), cfg, locs)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file")
	fl.StringVar(&f.coordinatesPath, "coordinates-path", "", "LED coordinate file (.txt JSON lines or .csv)")
	fl.Float64Var(&f.simulateSeconds, "simulate-seconds", 0, "stop after this many seconds (0 runs until closed)")
	fl.StringVar(&f.csvPath, "animation-csv-save-path", "", "write the animation trace CSV here on exit")
	fl.Float64Var(&f.showDelay, "show-delay", def.ShowDelay, "minimum seconds between two presents")
	fl.BoolVar(&f.noGUI, "no-gui", false, "run without a visualizer")

	fl.IntVar(&f.pixels, "pixels", def.Pixels, "LED count (defaults to the coordinate count)")
	fl.StringVar(&f.channelOrder, "channel-order", def.ColorOrder, "device channel order: RGB or GRB")
	fl.StringVar(&f.gui, "gui", "", "visualizer: tui, web or png")
	fl.StringVar(&f.pacing, "pacing", def.Pacing, "frame pacing: busy or hybrid")
	fl.StringVar(&f.sink, "sink", def.Sink, "byte sink: none, log, spi or mqtt")
	fl.StringVar(&f.addr, "addr", def.Preview.Addr, "listen address for --gui web")
	fl.StringVar(&f.pngPath, "png-path", def.PNG.Path, "output file for --gui png")
	fl.StringVar(&f.logLevel, "log-level", def.LogLevel, "debug, info, warn or error")
	fl.StringVar(&f.logFile, "log-file", "", "append logs to this file")
	fl.Int64Var(&f.seed, "seed", 0, "seed for random animations")
	return cmd
}

// resolveConfig layers explicitly set flags over the YAML file (or the
// defaults) and loads the LED positions.
func resolveConfig(cmd *cobra.Command, f *runFlags, args []string) (*config.Config, []pixel.Vec3, error) {
	cfg := config.Default()
	if f.configPath != "" {
		c, err := config.Load(f.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = c
	}

	set := cmd.Flags().Changed
	if set("gui") && set("no-gui") && f.noGUI {
		return nil, nil, simerr.Configf("--gui and --no-gui are mutually exclusive")
	}
	if set("coordinates-path") {
		cfg.CoordinatesPath = f.coordinatesPath
	}
	if set("simulate-seconds") {
		cfg.SimulateSeconds = f.simulateSeconds
	}
	if set("animation-csv-save-path") {
		cfg.AnimationCSVSavePath = f.csvPath
	}
	if set("show-delay") {
		cfg.ShowDelay = f.showDelay
	}
	if set("no-gui") {
		cfg.NoGUI = f.noGUI
		if f.noGUI {
			cfg.GUI = ""
		}
	}
	if set("gui") {
		cfg.GUI = f.gui
		cfg.NoGUI = false
	}
	if set("pixels") {
		cfg.Pixels = f.pixels
	}
	if set("channel-order") {
		cfg.ColorOrder = f.channelOrder
	}
	if set("pacing") {
		cfg.Pacing = f.pacing
	}
	if set("sink") {
		cfg.Sink = f.sink
	}
	if set("addr") {
		cfg.Preview.Addr = f.addr
	}
	if set("png-path") {
		cfg.PNG.Path = f.pngPath
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("log-file") {
		cfg.LogFile = f.logFile
	}
	if set("seed") {
		cfg.Seed = f.seed
	}
	if len(args) == 1 {
		cfg.Animation = args[0]
	}

	var locs []pixel.Vec3
	if cfg.CoordinatesPath != "" {
		l, err := coords.Load(cfg.CoordinatesPath)
		if err != nil {
			return nil, nil, err
		}
		if len(l) == 0 {
			return nil, nil, simerr.Formatf("%s holds no coordinates", cfg.CoordinatesPath)
		}
		if set("pixels") && f.pixels != len(l) {
			return nil, nil, simerr.Configf("--pixels %d disagrees with %d coordinates in %s", f.pixels, len(l), cfg.CoordinatesPath)
		}
		cfg.Pixels = len(l)
		locs = l
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if d := cfg.Dim; d != (config.Dim{}) {
		locs = layout.Layout{
			Dim:        layout.Dim{X: d.X, Y: d.Y, Z: d.Z},
			Order:      layout.Serpentine{XFlipEveryRow: cfg.XFlipEveryRow, YFlipEveryPanel: cfg.YFlipEveryPanel},
			PitchMM:    cfg.PitchMM,
			PanelGapMM: cfg.PanelGapMM,
		}.Positions()
	}
	return cfg, locs, nil
}

func run(ctx context.Context, cfg *config.Config, locs []pixel.Vec3) error {
	anim, ok := animation.Builtins(cfg.Seed).Get(cfg.Animation)
	if !ok {
		return simerr.Configf("unknown animation %q (see neopixelsim list)", cfg.Animation)
	}
	order, err := pixel.ParseOrder(cfg.ColorOrder)
	if err != nil {
		return err
	}
	strategy, err := pacer.ParseStrategy(cfg.Pacing)
	if err != nil {
		return err
	}

	window := cfg.Window()
	var releasers []func() error
	logOut, closeLog, err := logWriter(cfg.LogFile)
	if err != nil {
		return err
	}
	if closeLog != nil {
		releasers = append(releasers, closeLog)
	}
	level := cfg.LogLevel
	if window == config.GUITerminal && cfg.LogFile == "" {
		// the TUI owns stdout; keep stderr quiet underneath it
		if lvl, err := zerolog.ParseLevel(level); err == nil && lvl < zerolog.WarnLevel {
			level = zerolog.WarnLevel.String()
		}
	}
	if err := setupLogging(logOut, level, logOut == os.Stderr); err != nil {
		if closeLog != nil {
			_ = closeLog()
		}
		return err
	}

	var notify diag.Notifier // nil logs only
	var canvas render.Canvas
	switch window {
	case config.GUITerminal:
		canvas = tui.New()
	case config.GUIWeb:
		srv := preview.New(preview.Options{
			Addr:              cfg.Preview.Addr,
			CloseOnDisconnect: cfg.Preview.CloseOnDisconnect,
			Throttle:          time.Duration(cfg.Preview.ThrottleMs) * time.Millisecond,
		})
		canvas = srv
		notify = diag.Fanout(srv)
	case config.GUIPNG:
		canvas = snapshot.New(snapshot.Options{
			Path:   cfg.PNG.Path,
			Width:  cfg.PNG.Width,
			Height: cfg.PNG.Height,
			Every:  cfg.PNG.Every,
		})
	}

	out, err := openSink(cfg, order)
	if err != nil {
		for _, r := range releasers {
			_ = r()
		}
		return err
	}

	np, err := neopixel.New(neopixel.Options{
		Count:       cfg.Pixels,
		Order:       order,
		MinInterval: cfg.ShowDelayDuration(),
		Pacing:      strategy,
		Budget:      cfg.Budget(),
		TracePath:   cfg.AnimationCSVSavePath,
		Canvas:      canvas,
		Sink:        out,
		Locations:   locs,
		Releasers:   releasers,
		Notify:      notify,
	})
	if err != nil {
		if out != nil {
			_ = out.Close()
		}
		for _, r := range releasers {
			_ = r()
		}
		return err
	}
	if srv, ok := canvas.(*preview.Server); ok {
		log.Info().Str("url", "http://"+srv.Addr()+"/").Msg("preview listening")
	}
	log.Info().Stringer("config", cfg).Str("animation", anim.Name()).Msg("starting")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case s := <-sigs:
			log.Info().Stringer("signal", s).Msg("stopping after the current frame")
			np.RequestExit()
		case <-done:
		}
	}()

	frames, runErr := animation.Run(ctx, np, anim)
	closeErr := np.Close()
	log.Info().Int("frames", frames).Stringer("state", np.State()).Msg("done")
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// openSink returns the configured sink, wrapped in the current limiter when
// one is set, or nil for none.
func openSink(cfg *config.Config, order pixel.ChannelOrder) (sink.Sink, error) {
	s, err := openRawSink(cfg, order)
	if err != nil || s == nil || !cfg.Limit.Enabled() {
		return s, err
	}
	return &sink.Limited{Next: s, Limit: cfg.Limit}, nil
}

func openRawSink(cfg *config.Config, order pixel.ChannelOrder) (sink.Sink, error) {
	kind, err := sink.ParseKind(cfg.Sink)
	if err != nil {
		return nil, err
	}
	switch kind {
	case sink.KindLog:
		return &sink.Log{Every: 30}, nil
	case sink.KindSPI:
		d, err := sink.OpenNRZ(cfg.SPI.Dev, cfg.Pixels, physic.Frequency(cfg.SPI.SpeedHz)*physic.Hertz, order)
		if err != nil {
			return nil, err
		}
		return d, nil
	case sink.KindMQTT:
		m, err := sink.DialMQTT(cfg.MQTT, order)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, nil
}

// logWriter returns stderr, or the opened log file and a closer that points
// the logger back at stderr before closing it.
func logWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	release := func() error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return f.Close()
	}
	return f, release, nil
}
