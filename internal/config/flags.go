package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Only flags the user actually set are
// applied.
type Flags struct {
	fs *pflag.FlagSet

	configPath string
	debug      bool
	latitude   float64
	longitude  float64
	timeZone   string
	term       string
	year       int
	date       string
	model      string
	surface    string
	logFile    string
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.Float64Var(&f.latitude, "lat", 0, "Site latitude in degrees")
	fs.Float64Var(&f.longitude, "lon", 0, "Site longitude in degrees")
	fs.StringVar(&f.timeZone, "tz", "", "Site time zone")
	fs.StringVar(&f.term, "term", "", "Solar term to analyse (e.g. minor-cold, 冬至)")
	fs.IntVar(&f.year, "year", 0, "Year of the solar term")
	fs.StringVar(&f.date, "date", "", "Explicit analysis day, YYYY-MM-DD")
	fs.StringVarP(&f.model, "model", "m", "", "Model path or URL")
	fs.StringVar(&f.surface, "surface", "", "Off-screen surface: headless or gl")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	return f
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.configPath
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("lat") {
		cfg.Site.Latitude = f.latitude
	}
	if f.changed("lon") {
		cfg.Site.Longitude = f.longitude
	}
	if f.timeZone != "" {
		cfg.Site.TimeZone = f.timeZone
	}
	if f.term != "" {
		cfg.Sampling.Term = f.term
		// A term on the command line beats a configured date.
		cfg.Sampling.Date = ""
	}
	if f.year != 0 {
		cfg.Sampling.Year = f.year
	}
	if f.date != "" {
		cfg.Sampling.Date = f.date
	}
	if f.model != "" {
		cfg.Model.URL = f.model
	}
	if f.surface != "" {
		cfg.Surface.Kind = f.surface
	}
	if f.logFile != "" {
		cfg.Logging.LogFile = f.logFile
	}
}
