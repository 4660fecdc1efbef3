package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SUNVIEW_"

// LoadEnvFiles loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadEnvFiles(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

type envSetter func(cfg *Config, v string) error

var envVars = map[string]envSetter{
	"LATITUDE":  func(c *Config, v string) error { return setFloat(&c.Site.Latitude, v) },
	"LONGITUDE": func(c *Config, v string) error { return setFloat(&c.Site.Longitude, v) },
	"TIMEZONE":  func(c *Config, v string) error { c.Site.TimeZone = v; return nil },
	"TERM":      func(c *Config, v string) error { c.Sampling.Term = v; return nil },
	"YEAR": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Sampling.Year = n
		return err
	},
	"DATE":       func(c *Config, v string) error { c.Sampling.Date = v; return nil },
	"MODEL_URL":  func(c *Config, v string) error { c.Model.URL = v; return nil },
	"SURFACE":    func(c *Config, v string) error { c.Surface.Kind = v; return nil },
	"LOG_LEVEL":  func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"LOG_FORMAT": func(c *Config, v string) error { c.Logging.Format = v; return nil },
	"LOG_FILE":   func(c *Config, v string) error { c.Logging.LogFile = v; return nil },
	"KEEP_FANS": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.View.KeepFans = b
		return err
	},
}

// applyEnv applies SUNVIEW_* overrides found through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for name, set := range envVars {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}
