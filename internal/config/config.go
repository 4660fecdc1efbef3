// Package config handles sunview configuration loading and management.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/yejunweb/3d-solar-threejs/internal/analysis"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/solar"
	"github.com/yejunweb/3d-solar-threejs/internal/surface"
)

// Config holds all sunview configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Sampling SamplingConfig `yaml:"sampling"`
	View     ViewConfig     `yaml:"view"`
	Model    ModelConfig    `yaml:"model"`
	Surface  SurfaceConfig  `yaml:"surface"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig locates the analysed site.
type SiteConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	TimeZone  string  `yaml:"timezone"`
}

// SamplingConfig selects the analysis day and the sampling window.
type SamplingConfig struct {
	// Term names the solar term whose day is analysed. Ignored when Date is set.
	Term string `yaml:"term"`
	// Year of the term; zero means the current year.
	Year int `yaml:"year"`
	// Date is an explicit day in YYYY-MM-DD form.
	Date string `yaml:"date"`

	// Start and End are local wall-clock times, "HH:MM".
	Start       string        `yaml:"start"`
	End         string        `yaml:"end"`
	Step        time.Duration `yaml:"step"`
	SunDistance float32       `yaml:"sun_distance"`
}

// ViewConfig shapes the field-of-view fan.
type ViewConfig struct {
	MaxRadius      float32 `yaml:"max_radius"`
	AngleDegrees   float32 `yaml:"angle_degrees"`
	Segments       int     `yaml:"segments"`
	ObserverHeight float32 `yaml:"observer_height"`
	// KeepFans retains every unit's fan outline and embeds it in JSON
	// analysis reports.
	KeepFans bool `yaml:"keep_fans"`
}

// ModelConfig locates the model to analyse.
type ModelConfig struct {
	URL     string        `yaml:"url"`
	Scale   float32       `yaml:"scale"`
	Timeout time.Duration `yaml:"timeout"`
}

// SurfaceConfig selects the off-screen surface.
type SurfaceConfig struct {
	Kind   string `yaml:"kind"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// Default returns the default configuration.
func Default() *Config {
	view := analysis.DefaultViewConfig()
	surf := surface.DefaultConfig()
	return &Config{
		Site: SiteConfig{
			Latitude:  solar.DefaultLatitude,
			Longitude: solar.DefaultLongitude,
			TimeZone:  solar.DefaultZone,
		},
		Sampling: SamplingConfig{
			Term:        solar.MinorCold.String(),
			Start:       "08:00",
			End:         "16:00",
			Step:        time.Minute,
			SunDistance: 200,
		},
		View: ViewConfig{
			MaxRadius:      view.MaxRadius,
			AngleDegrees:   120,
			Segments:       view.Segments,
			ObserverHeight: view.ObserverHeight,
		},
		Model: ModelConfig{
			Scale:   1,
			Timeout: 2 * time.Minute,
		},
		Surface: SurfaceConfig{
			Kind:   string(surf.Kind),
			Width:  surf.Width,
			Height: surf.Height,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, e := c.Term(); e != nil {
		err = multierr.Append(err, fmt.Errorf("sampling.term: %w", e))
	}
	if _, e := c.Date(); e != nil {
		err = multierr.Append(err, fmt.Errorf("sampling.date: %w", e))
	}
	if sc, e := c.SolarConfig(); e != nil {
		err = multierr.Append(err, e)
	} else if e := sc.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("sampling: %w", e))
	}
	if e := c.ViewConfig().Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("view: %w", e))
	}
	if c.Model.Scale <= 0 {
		err = multierr.Append(err, fmt.Errorf("model.scale must be positive, got %v", c.Model.Scale))
	}
	if _, e := logger.ParseLevel(c.Logging.Level); e != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", e))
	}
	if !logger.ValidFormat(c.Logging.Format) {
		err = multierr.Append(err, fmt.Errorf("logging.format %q unknown", c.Logging.Format))
	}
	switch surface.Kind(c.Surface.Kind) {
	case surface.KindHeadless, surface.KindGL:
	default:
		err = multierr.Append(err, fmt.Errorf("surface.kind %q unknown", c.Surface.Kind))
	}
	return err
}

// Location resolves the site time zone, falling back to UTC+8.
func (c *Config) Location() *time.Location {
	return solar.LoadLocation(c.Site.TimeZone)
}

// Term parses the configured solar term. An empty term means minor cold.
func (c *Config) Term() (solar.Term, error) {
	if strings.TrimSpace(c.Sampling.Term) == "" {
		return solar.MinorCold, nil
	}
	return solar.ParseTerm(c.Sampling.Term)
}

// Date parses the explicit analysis day in the site time zone. It returns
// the zero time when no date is configured.
func (c *Config) Date() (time.Time, error) {
	if c.Sampling.Date == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", c.Sampling.Date, c.Location())
}

// SolarConfig converts the site and sampling sections for solar.NewSampler.
func (c *Config) SolarConfig() (solar.Config, error) {
	start, err := parseClock(c.Sampling.Start)
	if err != nil {
		return solar.Config{}, fmt.Errorf("sampling.start: %w", err)
	}
	end, err := parseClock(c.Sampling.End)
	if err != nil {
		return solar.Config{}, fmt.Errorf("sampling.end: %w", err)
	}
	return solar.Config{
		Latitude:    c.Site.Latitude,
		Longitude:   c.Site.Longitude,
		Location:    c.Location(),
		Start:       start,
		End:         end,
		Step:        c.Sampling.Step,
		SunDistance: c.Sampling.SunDistance,
	}, nil
}

// ViewConfig converts the view section.
func (c *Config) ViewConfig() analysis.ViewConfig {
	return analysis.ViewConfig{
		MaxRadius:      c.View.MaxRadius,
		Angle:          c.View.AngleDegrees * math.Pi / 180,
		Segments:       c.View.Segments,
		ObserverHeight: c.View.ObserverHeight,
	}
}

// LoggerOptions converts the logging section. Log files rotate with the
// default limits.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{Level: c.Logging.Level, Format: c.Logging.Format}
	if c.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(c.Logging.LogFile)
	}
	return opts
}

// SurfaceConfig converts the surface section.
func (c *Config) SurfaceConfig() surface.Config {
	sc := surface.DefaultConfig()
	sc.Kind = surface.Kind(c.Surface.Kind)
	sc.Width = c.Surface.Width
	sc.Height = c.Surface.Height
	return sc
}

// parseClock turns "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
