// Package surface provides the off-screen rendering surface the analysis
// host binds before loading geometry.
package surface

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Surface is an off-screen render target owned by one goroutine.
type Surface interface {
	// Bind acquires the underlying resources on the calling thread.
	Bind() error
	// Release frees everything Bind acquired. Safe to call twice.
	Release()
	Size() (width, height int)
	Kind() Kind
}

// Kind selects a surface implementation.
type Kind string

const (
	KindHeadless Kind = "headless"
	KindGL       Kind = "gl"
)

// ErrNotBound is returned when a surface is used before Bind.
var ErrNotBound = errors.New("surface not bound")

// Config describes a surface to create.
type Config struct {
	Kind   Kind
	Width  int
	Height int
	Title  string
}

// DefaultConfig is a small headless surface.
func DefaultConfig() Config {
	return Config{Kind: KindHeadless, Width: 256, Height: 256, Title: "sunview"}
}

// New creates an unbound surface of the configured kind.
func New(cfg Config, log *zap.Logger) (Surface, error) {
	if cfg.Width < 1 {
		cfg.Width = 1
	}
	if cfg.Height < 1 {
		cfg.Height = 1
	}
	switch cfg.Kind {
	case KindHeadless, "":
		return NewHeadless(cfg.Width, cfg.Height), nil
	case KindGL:
		return NewGL(cfg, log), nil
	}
	return nil, fmt.Errorf("unknown surface kind %q", cfg.Kind)
}

// Headless is a surface without any GPU resources. Geometry queries run on
// the CPU, so it is sufficient for analysis.
type Headless struct {
	width, height int

	// BindErr, when set, is returned by Bind.
	BindErr error

	mu       sync.Mutex
	bound    bool
	released bool
}

// NewHeadless returns an unbound headless surface.
func NewHeadless(width, height int) *Headless {
	return &Headless{width: width, height: height}
}

// Bind implements Surface.
func (h *Headless) Bind() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.BindErr != nil {
		return h.BindErr
	}
	h.bound = true
	return nil
}

// Release implements Surface.
func (h *Headless) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bound = false
	h.released = true
}

// Size implements Surface.
func (h *Headless) Size() (int, int) { return h.width, h.height }

// Kind implements Surface.
func (h *Headless) Kind() Kind { return KindHeadless }

// Bound reports whether the surface is currently bound.
func (h *Headless) Bound() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

// Released reports whether Release has been called.
func (h *Headless) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
