package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dlford/clock/internal/layout"
	"github.com/dlford/clock/internal/render"
	"github.com/dlford/clock/internal/schedule"
)

type PowerCfg struct {
	LimitAmps float64 `yaml:"limit_amps"`
	WhiteCap  float64 `yaml:"white_cap"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0
	Port    string `yaml:"port"`     // periph port name for driver nrz, "" = first
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
	ResetUs int    `yaml:"reset_us"` // e.g. 300
}

type Strip struct {
	Count      int     `yaml:"count"`
	Reverse    bool    `yaml:"reverse"`
	Offset     int     `yaml:"offset"`
	Gamma      float64 `yaml:"gamma"`
	ColorOrder string  `yaml:"color_order"`
}

type Wave struct {
	Center          float64 `yaml:"center"`
	Width           float64 `yaml:"width"`
	ShiftHorizontal float64 `yaml:"shift_horizontal"`
	ShiftVertical   float64 `yaml:"shift_vertical"`
	ShiftTime       float64 `yaml:"shift_time"`
}

type Config struct {
	Driver     string  `yaml:"driver"` // "sim" | "spi" | "nrz" | "none"
	Addr       string  `yaml:"addr"`
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`
	HourFormat int     `yaml:"hour_format"` // 12 | 24
	OffColor   string  `yaml:"off_color"`

	Renderer string `yaml:"renderer"`
	Preset   string `yaml:"preset,omitempty"`
	FadeMs   int    `yaml:"fade_ms"`
	Wave     Wave   `yaml:"wave"`

	Power PowerCfg `yaml:"power"`
	Strip Strip    `yaml:"strip"`
	SPI   SPI      `yaml:"spi,omitempty"`

	Schedule schedule.Plan `yaml:"schedule,omitempty"`
}

var (
	Drivers   = []string{"sim", "spi", "nrz", "none"}
	Renderers = []string{"wave", "solid", "calib"}
)

func Default() *Config {
	w := render.DefaultWave()
	return &Config{
		Driver:     "sim",
		Addr:       ":8080",
		Brightness: 1,
		FPS:        render.DefaultFPS,
		HourFormat: 12,
		OffColor:   render.OffColor.Hex(),
		Renderer:   "wave",
		FadeMs:     800,
		Wave: Wave{
			Center:          w.Center,
			Width:           w.Width,
			ShiftHorizontal: w.ShiftHorizontal,
			ShiftVertical:   w.ShiftVertical,
			ShiftTime:       w.ShiftTime,
		},
		Power: PowerCfg{WhiteCap: 3},
		Strip: Strip{Count: 46, Gamma: 2.2, ColorOrder: "GRB"},
		SPI:   SPI{Dev: "/dev/spidev0.0", SpeedHz: 2400000, ResetUs: 300},
	}
}

// Load reads path on top of Default, so missing keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
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

func (c *Config) Validate() error {
	var errs []error
	if !contains(Drivers, c.Driver) {
		errs = append(errs, fmt.Errorf("driver %q: want one of %v", c.Driver, Drivers))
	}
	if !contains(Renderers, c.Renderer) {
		errs = append(errs, fmt.Errorf("renderer %q: want one of %v", c.Renderer, Renderers))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness %v out of 0..1", c.Brightness))
	}
	if c.HourFormat != 12 && c.HourFormat != 24 {
		errs = append(errs, fmt.Errorf("hour_format must be 12 or 24, got %d", c.HourFormat))
	}
	if _, err := render.ParseHex(c.OffColor); err != nil {
		errs = append(errs, fmt.Errorf("off_color: %w", err))
	}
	if err := c.StripLayout().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Schedule.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *Config) TwentyFour() bool { return c.HourFormat == 24 }

func (c *Config) WaveParams() render.WaveParams {
	return render.WaveParams{
		Center:          c.Wave.Center,
		Width:           c.Wave.Width,
		ShiftHorizontal: c.Wave.ShiftHorizontal,
		ShiftVertical:   c.Wave.ShiftVertical,
		ShiftTime:       c.Wave.ShiftTime,
	}
}

// SetWaveParams stores p back into the config.
func (c *Config) SetWaveParams(p render.WaveParams) {
	c.Wave = Wave{
		Center:          p.Center,
		Width:           p.Width,
		ShiftHorizontal: p.ShiftHorizontal,
		ShiftVertical:   p.ShiftVertical,
		ShiftTime:       p.ShiftTime,
	}
}

// Off returns the parsed off color, falling back to the default.
func (c *Config) Off() render.Color {
	col, err := render.ParseHex(c.OffColor)
	if err != nil {
		return render.OffColor
	}
	return col
}

func (c *Config) StripLayout() layout.Strip {
	return layout.Strip{Count: c.Strip.Count, Reverse: c.Strip.Reverse, Offset: c.Strip.Offset}
}
