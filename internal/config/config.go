// Package config holds the simulator settings and their YAML form.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/neopixelsim/internal/pacer"
	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
	"github.com/coreman2200/neopixelsim/internal/sink"
)

const (
	GUITerminal = "tui"
	GUIWeb      = "web"
	GUIPNG      = "png"
)

type Dim struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. SPI0.0; empty picks the first port
	SpeedHz int    `yaml:"speed_hz"` // 0 or 2500000, the WS2812 NRZ clock
}

type Preview struct {
	Addr              string `yaml:"addr"`
	CloseOnDisconnect bool   `yaml:"close_on_disconnect"`
	ThrottleMs        int    `yaml:"throttle_ms"`
}

type PNG struct {
	Path   string `yaml:"path"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Every  int    `yaml:"every"`
}

type Config struct {
	Pixels     int    `yaml:"pixels"`
	ColorOrder string `yaml:"color_order"`

	CoordinatesPath      string  `yaml:"coordinates_path,omitempty"`
	SimulateSeconds      float64 `yaml:"simulate_seconds,omitempty"`
	AnimationCSVSavePath string  `yaml:"animation_csv_save_path,omitempty"`
	ShowDelay            float64 `yaml:"show_delay"`
	NoGUI                bool    `yaml:"no_gui"`

	GUI       string `yaml:"gui,omitempty"` // tui | web | png
	Pacing    string `yaml:"pacing"`        // busy | hybrid
	Animation string `yaml:"animation"`
	Seed      int64  `yaml:"seed"`

	// Dim lays the LEDs out on a panel lattice when no coordinate file is given.
	Dim             Dim     `yaml:"dim,omitempty"`
	PitchMM         float64 `yaml:"pitch_mm,omitempty"`
	PanelGapMM      float64 `yaml:"panel_gap_mm,omitempty"`
	XFlipEveryRow   bool    `yaml:"x_flip_every_row,omitempty"`
	YFlipEveryPanel bool    `yaml:"y_flip_every_panel,omitempty"`

	Sink string          `yaml:"sink"` // none | log | spi | mqtt
	SPI  SPI             `yaml:"spi,omitempty"`
	MQTT sink.MQTTConfig `yaml:"mqtt,omitempty"`
	// Limit caps LED current on the sink path; the visualizer and trace see
	// the unlimited frame.
	Limit sink.Limit `yaml:"limit,omitempty"`

	Preview Preview `yaml:"preview"`
	PNG     PNG     `yaml:"png"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

func Default() *Config {
	return &Config{
		Pixels:     100,
		ColorOrder: "GRB",
		ShowDelay:  0.03,
		Pacing:     "busy",
		Animation:  "random-fade",
		Sink:       string(sink.KindNone),
		SPI:        SPI{SpeedHz: 2500000},
		MQTT:       sink.MQTTConfig{URL: "tcp://localhost:1883", Topic: "neopixelsim/stream"},
		Preview:    Preview{Addr: "127.0.0.1:8080"},
		PNG:        PNG{Path: "neopixelsim.png", Width: 800, Height: 800},
		LogLevel:   "info",
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Configf("read %s: %v", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, simerr.Configf("parse %s: %v", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate rejects settings that cannot run. All failures wrap simerr.ErrConfig.
func (c *Config) Validate() error {
	if c.ShowDelay < 0 {
		return simerr.Configf("show_delay must be >= 0, got %v", c.ShowDelay)
	}
	if c.SimulateSeconds < 0 {
		return simerr.Configf("simulate_seconds must be >= 0, got %v", c.SimulateSeconds)
	}
	if c.Pixels <= 0 {
		return simerr.Configf("pixels must be > 0, got %d", c.Pixels)
	}
	if _, err := pixel.ParseOrder(c.ColorOrder); err != nil {
		return err
	}
	if _, err := pacer.ParseStrategy(c.Pacing); err != nil {
		return err
	}
	if _, err := sink.ParseKind(c.Sink); err != nil {
		return err
	}
	if c.NoGUI && c.GUI != "" {
		return simerr.Configf("gui %q and no_gui are mutually exclusive", c.GUI)
	}
	switch c.GUI {
	case "", GUITerminal, GUIWeb, GUIPNG:
	default:
		return simerr.Configf("unknown gui %q", c.GUI)
	}
	if d := c.Dim; d != (Dim{}) {
		if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
			return simerr.Configf("dim must be positive on every axis, got %dx%dx%d", d.X, d.Y, d.Z)
		}
		if c.CoordinatesPath != "" {
			return simerr.Configf("dim and coordinates_path are mutually exclusive")
		}
		if n := d.X * d.Y * d.Z; n != c.Pixels {
			return simerr.Configf("dim %dx%dx%d holds %d LEDs but pixels is %d", d.X, d.Y, d.Z, n, c.Pixels)
		}
	}
	if hz := c.SPI.SpeedHz; hz != 0 && physic.Frequency(hz)*physic.Hertz != sink.DefaultNRZHz {
		return simerr.Configf("spi.speed_hz %d unsupported, the NRZ encoder needs %d", hz, int64(sink.DefaultNRZHz/physic.Hertz))
	}
	if c.Sink == string(sink.KindMQTT) && (c.MQTT.URL == "" || c.MQTT.Topic == "") {
		return simerr.Configf("mqtt sink needs url and topic")
	}
	if l := c.Limit; l.WhiteCap < 0 || l.ChanMA < 0 || l.BudgetMA < 0 || l.Knee < 0 || l.Knee >= 1 {
		return simerr.Configf("limit values must be >= 0 and knee < 1")
	}
	if c.PNG.Every < 0 || c.Preview.ThrottleMs < 0 {
		return simerr.Configf("png.every and preview.throttle_ms must be >= 0")
	}
	return nil
}

// Window returns the visualizer to run, or "" when running headless.
func (c *Config) Window() string {
	if c.NoGUI {
		return ""
	}
	if c.GUI == "" {
		return GUITerminal
	}
	return c.GUI
}

func (c *Config) ShowDelayDuration() time.Duration { return seconds(c.ShowDelay) }

// Budget is the simulate_seconds time budget; zero means unlimited.
func (c *Config) Budget() time.Duration { return seconds(c.SimulateSeconds) }

func (c *Config) String() string {
	return fmt.Sprintf("pixels=%d order=%s gui=%q pacing=%s sink=%s", c.Pixels, c.ColorOrder, c.Window(), c.Pacing, c.Sink)
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
