package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/analysis"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/internal/solar"
)

var (
	// ErrQueueFull is returned by Post when the request queue is full.
	ErrQueueFull = errors.New("request queue full")
	// ErrTerminated is returned by Post after the host has exited.
	ErrTerminated = errors.New("host terminated")
)

// Options configures a host.
type Options struct {
	Loader scene.Loader

	// Sampler defaults to solar.DefaultConfig.
	Sampler *solar.Sampler
	// Date selects the analysis day. When zero, the day Term begins in
	// Year (zero means the current year) is used.
	Date time.Time
	Term solar.Term
	Year int

	View     analysis.ViewConfig
	KeepFans bool

	// ModelScale places building tags in world units. It should match the
	// scale the loader applied to the model root.
	ModelScale float32

	QueueSize  int
	EventQueue int
	Log        *zap.Logger
}

func (o *Options) withDefaults() error {
	if o.Loader == nil {
		o.Loader = &scene.FileLoader{}
	}
	if o.Sampler == nil {
		s, err := solar.NewSampler(solar.DefaultConfig())
		if err != nil {
			return err
		}
		o.Sampler = s
	}
	if o.View == (analysis.ViewConfig{}) {
		o.View = analysis.DefaultViewConfig()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 8
	}
	if o.EventQueue <= 0 {
		o.EventQueue = 64
	}
	o.Log = logger.OrNop(o.Log).Named("worker")
	return nil
}

// Host runs requests one at a time on its own goroutine. Callers interact
// with it only through Post and Events.
type Host struct {
	opts Options
	log  *zap.Logger

	requests chan Request
	events   chan Event
	done     chan struct{}
	cancel   context.CancelFunc

	session *AnalysisSession

	mu      sync.Mutex
	exitErr error
}

// Start launches a host. Cancelling ctx has the same effect as Terminate.
func Start(ctx context.Context, opts Options) (*Host, error) {
	if err := opts.withDefaults(); err != nil {
		return nil, fmt.Errorf("worker options: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Host{
		opts:     opts,
		log:      opts.Log,
		requests: make(chan Request, opts.QueueSize),
		events:   make(chan Event, opts.EventQueue),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go h.run(ctx)
	return h, nil
}

// Post queues a request without blocking.
func (h *Host) Post(r Request) error {
	select {
	case <-h.done:
		return ErrTerminated
	default:
	}
	select {
	case h.requests <- r:
		return nil
	case <-h.done:
		return ErrTerminated
	default:
		return ErrQueueFull
	}
}

// Events returns the event stream. It is closed when the host exits.
func (h *Host) Events() <-chan Event { return h.events }

// Terminate stops the host, discarding in-flight work. No further results
// are emitted.
func (h *Host) Terminate() { h.cancel() }

// Done is closed when the host has exited.
func (h *Host) Done() <-chan struct{} { return h.done }

// Wait blocks until the host exits and returns why it stopped: nil after
// a completed analysis, otherwise an *Error.
func (h *Host) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

func (h *Host) run(ctx context.Context) {
	// GL surfaces are bound to the thread that created them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer close(h.events)
	defer close(h.done)
	defer h.cancel()
	defer func() {
		if h.session != nil {
			h.session.Close()
		}
	}()

	h.log.Debug("worker started")
	for {
		select {
		case <-ctx.Done():
			h.exit(&Error{Kind: ResourceTermination, Err: ctx.Err()})
			return
		case req := <-h.requests:
			if h.dispatch(ctx, req) {
				return
			}
		}
	}
}

func (h *Host) exit(err error) {
	h.mu.Lock()
	h.exitErr = err
	h.mu.Unlock()
	if err != nil {
		h.log.Info("worker exiting", zap.Error(err))
	} else {
		h.log.Info("worker finished")
	}
}

// dispatch handles one request and reports whether the host should exit.
func (h *Host) dispatch(ctx context.Context, req Request) (stop bool) {
	log := h.log.With(zap.String("request", req.ID), zap.Stringer("command", req.Command))
	defer func() {
		if r := recover(); r != nil {
			log.Error("request panicked", zap.Any("panic", r))
			h.emit(ctx, errorEvent(EventError, req.ID, DataAnomaly, fmt.Errorf("internal error: %v", r)))
			stop = false
		}
	}()

	switch req.Command {
	case CommandInit:
		return h.handleInit(ctx, req, log)
	case CommandLoadModel:
		return h.handleLoad(ctx, req, log)
	case CommandCalculate:
		return h.handleCalculate(ctx, req, log)
	}
	log.Warn("unknown command")
	h.emit(ctx, errorEvent(EventError, req.ID, PreconditionFailure, fmt.Errorf("unknown command %s", req.Command)))
	return false
}

func (h *Host) refuse(ctx context.Context, req Request, log *zap.Logger, err error) {
	log.Warn("request refused", zap.Error(err))
	h.emit(ctx, errorEvent(EventError, req.ID, PreconditionFailure, err))
}

func (h *Host) handleInit(ctx context.Context, req Request, log *zap.Logger) bool {
	if h.session != nil {
		h.refuse(ctx, req, log, errors.New("already initialized"))
		return false
	}
	if req.Surface == nil {
		h.refuse(ctx, req, log, errors.New("init without a surface"))
		return false
	}
	if err := req.Surface.Bind(); err != nil {
		err = fmt.Errorf("bind surface: %w", err)
		log.Error("surface unavailable", zap.Error(err))
		h.emit(ctx, errorEvent(EventError, req.ID, ResourceTermination, err))
		h.exit(&Error{Kind: ResourceTermination, Err: err})
		return true
	}
	h.session = NewSession(req.Surface, h.log)
	log.Info("session ready", zap.String("session", h.session.ID), zap.String("surface", string(req.Surface.Kind())))
	h.emit(ctx, Event{Type: EventReady, RequestID: req.ID})
	return false
}

func (h *Host) handleLoad(ctx context.Context, req Request, log *zap.Logger) bool {
	if h.session == nil {
		h.refuse(ctx, req, log, errors.New("loadModel before init"))
		return false
	}
	if err := h.session.Load(ctx, h.opts.Loader, req.URL); err != nil {
		if ctx.Err() != nil {
			h.exit(&Error{Kind: ResourceTermination, Err: ctx.Err()})
			return true
		}
		log.Error("model load failed", zap.Error(err))
		h.emit(ctx, errorEvent(EventModelLoadError, req.ID, LoadFailure, err))
		h.exit(&Error{Kind: LoadFailure, Err: err})
		return true
	}
	cat := h.session.Catalog
	h.emit(ctx, Event{
		Type:      EventModelLoaded,
		RequestID: req.ID,
		Buildings: len(cat.Buildings),
		Units:     len(cat.Units),
		Tags:      cat.Tags(h.opts.ModelScale),
	})
	return false
}

func (h *Host) handleCalculate(ctx context.Context, req Request, log *zap.Logger) bool {
	if h.session == nil || !h.session.Ready() {
		h.refuse(ctx, req, log, analysis.ErrModelNotReady)
		return false
	}

	day := h.analysisDay()
	samples := h.opts.Sampler.Samples(day)
	log.Info("calculating", zap.Time("day", day), zap.Int("samples", len(samples)), zap.Int("units", len(h.session.Catalog.Units)))

	progress := func(p analysis.Progress) {
		h.emit(ctx, Event{Type: EventProcessing, RequestID: req.ID, Phase: p.Phase, Percent: p.String()})
	}

	sun, err := h.session.Sunlight(ctx, samples, h.opts.Sampler.Config().SunDistance, progress)
	if err != nil {
		return h.analysisFailed(ctx, req, log, err)
	}
	h.emit(ctx, Event{Type: EventSunlightCalcFinish, RequestID: req.ID, Sunlight: sun})

	view, err := h.session.FieldView(ctx, h.opts.View, h.opts.KeepFans, progress)
	if err != nil {
		return h.analysisFailed(ctx, req, log, err)
	}
	h.emit(ctx, Event{Type: EventFieldViewCalcFinish, RequestID: req.ID, FieldView: view.Areas, Fans: view.Fans})

	if ctx.Err() != nil {
		h.exit(&Error{Kind: ResourceTermination, Err: ctx.Err()})
		return true
	}
	h.emit(ctx, Event{Type: EventFinished, RequestID: req.ID})
	h.exit(nil)
	return true
}

func (h *Host) analysisFailed(ctx context.Context, req Request, log *zap.Logger, err error) bool {
	if ctx.Err() != nil {
		h.exit(&Error{Kind: ResourceTermination, Err: ctx.Err()})
		return true
	}
	kind := DataAnomaly
	if errors.Is(err, analysis.ErrModelNotReady) {
		kind = PreconditionFailure
	}
	log.Error("analysis failed", zap.Error(err))
	h.emit(ctx, errorEvent(EventError, req.ID, kind, err))
	return false
}

func (h *Host) analysisDay() time.Time {
	if !h.opts.Date.IsZero() {
		return h.opts.Sampler.Date(h.opts.Date)
	}
	year := h.opts.Year
	if year == 0 {
		year = time.Now().In(h.opts.Sampler.Config().Location).Year()
	}
	return h.opts.Sampler.Day(h.opts.Term, year)
}

// emit delivers an event unless the host has been cancelled; after
// cancellation nothing more reaches the caller.
func (h *Host) emit(ctx context.Context, e Event) {
	if ctx.Err() != nil {
		return
	}
	select {
	case h.events <- e:
	case <-ctx.Done():
	}
}
