package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dudu/mirrorbooth/internal/canvas"
	"github.com/dudu/mirrorbooth/internal/landmark"
)

// noTimestamp is a timestamp no source frame carries
const noTimestamp time.Duration = -1

// Config holds frame loop configuration
type Config struct {
	// RefreshRate is the tick rate in Hz
	RefreshRate float64
	// Mirror flips the video and the landmarks horizontally
	Mirror bool
	Clock  clock.Clock
}

// DefaultConfig ticks at 60 Hz on the wall clock with mirroring on
func DefaultConfig() Config {
	return Config{RefreshRate: 60, Mirror: true, Clock: clock.New()}
}

// Components are the collaborators the loop drives
type Components struct {
	Source    Source
	Detector  FaceDetector
	Renderer  OverlayRenderer
	Presenter Presenter
	Settings  RenderSettings
}

// Timing holds performance timing information
type Timing struct {
	Draw      time.Duration `json:"draw"`
	Detection time.Duration `json:"detection"`
	Render    time.Duration `json:"render"`
	Present   time.Duration `json:"present"`
	Total     time.Duration `json:"total"`
}

// Status is a snapshot of the loop for the HUD and the control API
type Status struct {
	State        State   `json:"state"`
	FaceDetected bool    `json:"faceDetected"`
	FPS          float64 `json:"fps"`
	Frames       uint64  `json:"frames"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Timing       Timing  `json:"timing"`
}

// Loop pumps frames from the source through detection and the overlay
// renderer into the canvas, once per new frame.
type Loop struct {
	cfg    Config
	c      Components
	clock  clock.Clock
	logger *zap.SugaredLogger

	// owned by the stepping goroutine
	canvas        *canvas.Canvas
	lastTimestamp time.Duration
	fpsFrames     int
	fpsSince      time.Time

	state        atomic.Int32
	faceDetected atomic.Bool
	frames       atomic.Uint64

	mu     sync.Mutex
	fps    float64
	timing Timing
	size   image.Point
}

// New creates a frame loop
func New(cfg Config, c Components, logger *zap.SugaredLogger) (*Loop, error) {
	if c.Source == nil || c.Detector == nil || c.Renderer == nil || c.Presenter == nil || c.Settings == nil {
		return nil, errors.New("frame loop needs a source, detector, renderer, presenter and settings")
	}
	if cfg.RefreshRate <= 0 {
		return nil, fmt.Errorf("invalid refresh rate %v", cfg.RefreshRate)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	l := &Loop{
		cfg:           cfg,
		c:             c,
		clock:         cfg.Clock,
		logger:        logger,
		canvas:        canvas.New(),
		lastTimestamp: noTimestamp,
		fpsSince:      cfg.Clock.Now(),
	}
	l.state.Store(int32(WaitingForSource))
	return l, nil
}

// Run steps the loop on every tick until ctx is cancelled. Ticks that arrive
// while a step is running are dropped.
func (l *Loop) Run(ctx context.Context) error {
	period := time.Duration(float64(time.Second) / l.cfg.RefreshRate)
	ticker := l.clock.Ticker(period)
	defer ticker.Stop()

	l.logger.Infow("frame loop started", "period", period)
	defer l.logger.Info("frame loop stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			l.Step(ctx)
		}
	}
}

// Step runs one tick and returns the state it ended in
func (l *Loop) Step(ctx context.Context) State {
	if ctx.Err() != nil {
		return l.State()
	}
	src := l.c.Source
	if !src.Ready() || src.Width() <= 0 || src.Height() <= 0 {
		l.enter(WaitingForSource)
		return WaitingForSource
	}
	frame, ts := src.Frame()
	if frame == nil {
		l.enter(WaitingForSource)
		return WaitingForSource
	}
	if ts == l.lastTimestamp {
		l.enter(Idle)
		return Idle
	}
	l.lastTimestamp = ts

	l.process(ctx, frame)
	return l.State()
}

// process draws, detects, renders and presents one new frame
func (l *Loop) process(ctx context.Context, frame image.Image) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorw("frame aborted", "panic", r)
			l.faceDetected.Store(false)
			l.enter(Idle)
		}
	}()

	start := l.clock.Now()
	var timing Timing

	l.enter(Ready)
	cfg := l.c.Settings.Render()
	b := frame.Bounds()
	if l.canvas.Resize(b.Dx(), b.Dy()) {
		l.logger.Infow("canvas resized", "width", b.Dx(), "height", b.Dy())
		l.mu.Lock()
		l.size = b.Size()
		l.mu.Unlock()
	}
	l.canvas.DrawFrame(frame, cfg.Brightness, l.cfg.Mirror)
	timing.Draw = l.clock.Since(start)

	l.enter(Detecting)
	detectStart := l.clock.Now()
	result, err := l.c.Detector.Detect(ctx, frame)
	timing.Detection = l.clock.Since(detectStart)
	if ctx.Err() != nil {
		l.logger.Debug("discarding detection result after cancel")
		l.enter(Idle)
		return
	}

	var landmarks []landmark.Point
	if err != nil {
		l.logger.Warnw("detection failed", "error", err)
	} else {
		landmarks = result.Primary()
	}
	l.faceDetected.Store(len(landmarks) > 0)

	if len(landmarks) > 0 {
		if l.cfg.Mirror {
			landmarks = landmark.Mirror(landmarks)
		}
		renderStart := l.clock.Now()
		if err := l.c.Renderer.Render(l.canvas.RGBA(), landmarks, cfg.FilterID, cfg.Intensity, l.clock.Now()); err != nil {
			l.logger.Warnw("overlay render failed", "filter", cfg.FilterID, "error", err)
		}
		timing.Render = l.clock.Since(renderStart)
	}

	presentStart := l.clock.Now()
	if err := l.c.Presenter.Present(l.canvas.RGBA(), l.Status()); err != nil {
		l.logger.Warnw("present failed", "error", err)
	}
	timing.Present = l.clock.Since(presentStart)
	timing.Total = l.clock.Since(start)

	l.finish(timing)
	l.enter(Idle)
}

// finish records timing and updates the FPS counter once a second
func (l *Loop) finish(timing Timing) {
	l.frames.Inc()
	l.fpsFrames++
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.timing = timing
	if elapsed := now.Sub(l.fpsSince); elapsed >= time.Second {
		l.fps = float64(l.fpsFrames) / elapsed.Seconds()
		l.fpsFrames = 0
		l.fpsSince = now
	}
}

func (l *Loop) enter(to State) {
	from := State(l.state.Swap(int32(to)))
	if !CanTransition(from, to) {
		l.logger.Errorw("invalid state transition", "from", from, "to", to)
	}
}

// State returns the current loop state
func (l *Loop) State() State {
	return State(l.state.Load())
}

// FaceDetected reports whether the last processed frame had a face
func (l *Loop) FaceDetected() bool {
	return l.faceDetected.Load()
}

// Status returns a snapshot of the loop. It is safe to call from any goroutine.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:        l.State(),
		FaceDetected: l.faceDetected.Load(),
		FPS:          l.fps,
		Frames:       l.frames.Load(),
		Width:        l.size.X,
		Height:       l.size.Y,
		Timing:       l.timing,
	}
}

// Close releases the components that hold resources
func (l *Loop) Close() error {
	var err error
	for _, c := range []any{l.c.Presenter, l.c.Detector, l.c.Source} {
		if closer, ok := c.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	if err != nil {
		return fmt.Errorf("cleanup errors: %w", err)
	}
	return nil
}
