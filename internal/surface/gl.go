package surface

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/logger"
)

// GL is a hidden SDL2 window with an OpenGL 4.1 core context and an
// off-screen framebuffer. All calls must come from the goroutine that
// called Bind, with its OS thread locked.
type GL struct {
	cfg Config
	log *zap.Logger

	window    *sdl.Window
	glContext sdl.GLContext

	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
}

// NewGL returns an unbound GL surface.
func NewGL(cfg Config, log *zap.Logger) *GL {
	return &GL{cfg: cfg, log: logger.OrNop(log).Named("surface")}
}

// Bind implements Surface.
func (s *GL) Bind() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("SDL_Init failed: %w", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	var err error
	s.window, err = sdl.CreateWindow(
		s.cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(s.cfg.Width),
		int32(s.cfg.Height),
		sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	s.glContext, err = s.window.GLCreateContext()
	if err != nil {
		s.Release()
		return fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	if err := gl.Init(); err != nil {
		s.Release()
		return fmt.Errorf("gl.Init failed: %w", err)
	}

	if err := s.createFramebuffer(); err != nil {
		s.Release()
		return err
	}

	s.log.Info("off-screen surface bound",
		zap.String("gl", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.Int("width", s.cfg.Width),
		zap.Int("height", s.cfg.Height))
	return nil
}

func (s *GL) createFramebuffer() error {
	w, h := int32(s.cfg.Width), int32(s.cfg.Height)

	gl.GenFramebuffers(1, &s.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)

	gl.GenTextures(1, &s.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, s.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, s.colorTexture, 0)

	gl.GenRenderbuffers(1, &s.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, s.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, w, h)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, s.depthRBO)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	gl.Viewport(0, 0, w, h)
	return nil
}

// Release implements Surface.
func (s *GL) Release() {
	if s.fbo != 0 {
		gl.DeleteFramebuffers(1, &s.fbo)
		s.fbo = 0
	}
	if s.colorTexture != 0 {
		gl.DeleteTextures(1, &s.colorTexture)
		s.colorTexture = 0
	}
	if s.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &s.depthRBO)
		s.depthRBO = 0
	}
	if s.glContext != nil {
		sdl.GLDeleteContext(s.glContext)
		s.glContext = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
		sdl.Quit()
		s.log.Info("off-screen surface released")
	}
}

// Size implements Surface.
func (s *GL) Size() (int, int) { return s.cfg.Width, s.cfg.Height }

// Kind implements Surface.
func (s *GL) Kind() Kind { return KindGL }
