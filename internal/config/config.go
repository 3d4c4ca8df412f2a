// Package config loads the demo configuration from a YAML file, environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ecgreadout"
	"periph.io/x/devices/v3/ecgreadout/ili9341"
	"periph.io/x/devices/v3/ecgreadout/internal/ecgsim"
	"periph.io/x/devices/v3/ecgreadout/rgb565"
	"tinygo.org/x/drivers"
)

// EnvPrefix prefixes the environment variables read by Load, e.g.
// ECGREADOUT_READOUT_JITTER.
const EnvPrefix = "ECGREADOUT"

// FileName is the configuration file looked up by Load.
const FileName = "ecgreadout.yaml"

type Display struct {
	SPI      string `fig:"spi"`                  // SPI port name, empty for the first one
	DC       string `fig:"dc" default:"GPIO24"`  // Data/Command pin
	RST      string `fig:"rst" default:"GPIO25"` // Reset pin, empty if not wired
	MHz      int    `fig:"mhz" default:"16"`     // SPI clock
	Width    int    `fig:"width" default:"320"`  // Panel width after rotation
	Height   int    `fig:"height" default:"240"` // Panel height after rotation
	Rotation int    `fig:"rotation" default:"1"` // Quarter turns clockwise
	Inverted bool   `fig:"inverted"`             // IPS panels need inversion
	Headless bool   `fig:"headless"`             // Draw into memory instead of a panel
}

type Readout struct {
	X              int           `fig:"x" default:"1"`
	Y              int           `fig:"y" default:"9"`
	Width          int           `fig:"width" default:"318"`
	Height         int           `fig:"height" default:"200"`
	SamplingPeriod time.Duration `fig:"sampling_period" default:"33333333ns"`
	RefreshPeriod  time.Duration `fig:"refresh_period" default:"100ms"`
	Jitter         int           `fig:"jitter" default:"40"`
	PeakThreshold  int           `fig:"peak_threshold" default:"90"`
	Refractory     int           `fig:"refractory" default:"4"`
	Foreground     string        `fig:"foreground" default:"#FFFFFF"`
	Background     string        `fig:"background" default:"#000000"`
	HideRate       bool          `fig:"hide_rate"`
}

type Source struct {
	BPM       float64 `fig:"bpm" default:"72"`
	Noise     float64 `fig:"noise" default:"0.02"`
	Seed      uint64  `fig:"seed"`
	FailEvery int     `fig:"fail_every"`
}

type Monitoring struct {
	Port          int  `fig:"port" default:"9090"`
	MetricEnabled bool `fig:"metric_enabled"`
}

type Log struct {
	Debug bool   `fig:"debug"`
	JSON  bool   `fig:"json"` // JSON lines instead of console output
	Tag   string `fig:"tag" default:"ecg"`
}

// Config is the demo configuration.
//
// Boolean settings default to false since fig cannot tell an explicit false
// from a missing value.
type Config struct {
	Display    Display    `fig:"display"`
	Readout    Readout    `fig:"readout"`
	Source     Source     `fig:"source"`
	Monitoring Monitoring `fig:"monitoring"`
	Log        Log        `fig:"log"`
}

// Load reads FileName from path, or from the current and configs/ directories
// when path is empty, then applies ECGREADOUT_ environment variables. A missing
// file is not an error: defaults and the environment are used.
func Load(path string) (*Config, error) {
	var c Config
	dirs := []string{path}
	if path == "" {
		dirs = []string{".", "configs"}
	}
	err := fig.Load(&c, fig.File(FileName), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		c = Config{}
		err = fig.Load(&c, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

// WithFlags registers a flag for the common settings, using the loaded values
// as defaults so that flags given on the command line win.
func (c *Config) WithFlags(fs *pflag.FlagSet) *Config {
	fs.StringVar(&c.Display.SPI, "spi", c.Display.SPI, "SPI port name")
	fs.StringVar(&c.Display.DC, "dc", c.Display.DC, "Data/Command GPIO pin")
	fs.StringVar(&c.Display.RST, "rst", c.Display.RST, "Reset GPIO pin, empty if not wired")
	fs.IntVar(&c.Display.Rotation, "rotation", c.Display.Rotation, "Display rotation in quarter turns")
	fs.BoolVar(&c.Display.Headless, "headless", c.Display.Headless, "Render into memory, no hardware needed")
	fs.DurationVar(&c.Readout.SamplingPeriod, "sampling", c.Readout.SamplingPeriod, "Sampling period")
	fs.DurationVar(&c.Readout.RefreshPeriod, "refresh", c.Readout.RefreshPeriod, "Redraw period")
	fs.IntVar(&c.Readout.Jitter, "jitter", c.Readout.Jitter, "Minimum step drawn as a vertical run")
	fs.Float64Var(&c.Source.BPM, "bpm", c.Source.BPM, "Simulated heart rate")
	fs.IntVar(&c.Monitoring.Port, "monitoring.port", c.Monitoring.Port, "Monitoring server port")
	fs.BoolVar(&c.Monitoring.MetricEnabled, "metrics", c.Monitoring.MetricEnabled, "Serve Prometheus metrics")
	fs.BoolVarP(&c.Log.Debug, "debug", "d", c.Log.Debug, "Debug logging")
	return c
}

// DisplayOpts returns the panel driver options. RST is resolved by the caller.
func (c *Config) DisplayOpts() (*ili9341.Opts, error) {
	if c.Display.Rotation < 0 || c.Display.Rotation > 3 {
		return nil, fmt.Errorf("config: rotation %d is not 0-3", c.Display.Rotation)
	}
	return &ili9341.Opts{
		W:        c.Display.Width,
		H:        c.Display.Height,
		Rotation: drivers.Rotation(c.Display.Rotation),
		Inverted: c.Display.Inverted,
		Hz:       physic.Frequency(c.Display.MHz) * physic.MegaHertz,
	}, nil
}

// ReadoutOpts returns the readout options. Metrics and Logger are left to the
// caller.
func (c *Config) ReadoutOpts() (*ecgreadout.Opts, error) {
	fg, err := ParseColor(c.Readout.Foreground)
	if err != nil {
		return nil, err
	}
	bg, err := ParseColor(c.Readout.Background)
	if err != nil {
		return nil, err
	}
	return &ecgreadout.Opts{
		X:              c.Readout.X,
		Y:              c.Readout.Y,
		W:              c.Readout.Width,
		H:              c.Readout.Height,
		SamplingPeriod: c.Readout.SamplingPeriod,
		RefreshPeriod:  c.Readout.RefreshPeriod,
		Jitter:         c.Readout.Jitter,
		PeakThreshold:  ecgreadout.Sample(c.Readout.PeakThreshold),
		Refractory:     c.Readout.Refractory,
		Foreground:     fg,
		Background:     bg,
		ShowRate:       !c.Readout.HideRate,
	}, nil
}

// SourceOpts returns the simulator options, sampled at the readout rate.
func (c *Config) SourceOpts() *ecgsim.Opts {
	return &ecgsim.Opts{
		BPM:            c.Source.BPM,
		SamplingPeriod: c.Readout.SamplingPeriod,
		Noise:          c.Source.Noise,
		Seed:           c.Source.Seed,
		FailEvery:      c.Source.FailEvery,
	}
}

// ParseColor parses a #RRGGBB color into an RGB565 value.
func ParseColor(s string) (rgb565.Color, error) {
	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil || n != 3 || len(s) != 7 {
		return 0, fmt.Errorf("config: invalid color %q, want #RRGGBB", s)
	}
	return rgb565.FromRGB(r, g, b), nil
}
