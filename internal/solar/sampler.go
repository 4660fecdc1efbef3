package solar

import (
	"errors"
	"fmt"
	"time"

	"github.com/sixdouglas/suncalc"

	vm "github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// Default site: Guangzhou.
const (
	DefaultLatitude  = 23.1291
	DefaultLongitude = 113.2644
	DefaultZone      = "Asia/Shanghai"
)

// Config describes the site and the daily sampling window.
type Config struct {
	Latitude  float64
	Longitude float64
	Location  *time.Location

	// Start and End are offsets from local midnight; samples cover [Start, End).
	Start time.Duration
	End   time.Duration
	Step  time.Duration

	// SunDistance places the virtual sun along each direction.
	SunDistance float32
}

// DefaultConfig returns 08:00 to 16:00 at one-minute steps: 480 samples.
func DefaultConfig() Config {
	return Config{
		Latitude:    DefaultLatitude,
		Longitude:   DefaultLongitude,
		Location:    LoadLocation(DefaultZone),
		Start:       8 * time.Hour,
		End:         16 * time.Hour,
		Step:        time.Minute,
		SunDistance: 200,
	}
}

// LoadLocation loads a zone by name, falling back to UTC+8 when the zone
// database is unavailable.
func LoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("UTC+8", 8*60*60)
}

// Validate checks the window and site.
func (c Config) Validate() error {
	if c.Step <= 0 {
		return errors.New("sampling step must be positive")
	}
	if c.End <= c.Start {
		return fmt.Errorf("sampling window end %s not after start %s", c.End, c.Start)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Longitude)
	}
	return nil
}

// Count is the number of samples per day.
func (c Config) Count() int {
	if c.Step <= 0 || c.End <= c.Start {
		return 0
	}
	return int((c.End - c.Start + c.Step - 1) / c.Step)
}

// Sample is the sun's direction at one instant.
type Sample struct {
	Time      time.Time
	Direction vm.Vec3
	// Altitude and Azimuth in radians; azimuth 0 is south, positive west.
	Altitude float64
	Azimuth  float64
}

// SunPosition places the virtual sun at distance along the direction.
func (s Sample) SunPosition(distance float32) vm.Vec3 {
	return s.Direction.Scale(distance)
}

// Sampler generates solar samples. It holds no state between calls.
type Sampler struct {
	cfg Config
}

// NewSampler validates cfg and returns a sampler.
func NewSampler(cfg Config) (*Sampler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{cfg: cfg}, nil
}

// Config returns the sampler's configuration.
func (s *Sampler) Config() Config { return s.cfg }

// Day returns local midnight of the calendar day on which term begins.
func (s *Sampler) Day(term Term, year int) time.Time {
	return s.Date(term.Instant(year))
}

// Date returns local midnight of t's calendar day.
func (s *Sampler) Date(t time.Time) time.Time {
	y, m, d := t.In(s.cfg.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)
}

// Samples returns one sample per step of the window on day's date. Each call
// returns a fresh slice.
func (s *Sampler) Samples(day time.Time) []Sample {
	midnight := s.Date(day)
	out := make([]Sample, 0, s.cfg.Count())
	for off := s.cfg.Start; off < s.cfg.End; off += s.cfg.Step {
		out = append(out, s.At(midnight.Add(off)))
	}
	return out
}

// At computes the sample for one instant.
func (s *Sampler) At(t time.Time) Sample {
	pos := suncalc.GetPosition(t, s.cfg.Latitude, s.cfg.Longitude)
	return Sample{
		Time:      t,
		Direction: Direction(pos.Altitude, pos.Azimuth),
		Altitude:  pos.Altitude,
		Azimuth:   pos.Azimuth,
	}
}
