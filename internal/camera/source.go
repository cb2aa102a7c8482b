// Package camera turns a capture device or video file into a polled frame
// source for the frame loop.
package camera

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	errClosed  = errors.New("capture closed")
	errNoFrame = errors.New("no frame available")
)

// retryDelay is how long the reader backs off after a failed grab
const retryDelay = 50 * time.Millisecond

// grabber is a blocking frame producer
type grabber interface {
	Grab() (image.Image, error)
	// Interval is the pacing period in seconds, zero when Grab blocks on its own
	Interval() float64
	Close() error
}

// Source keeps the newest decoded frame. A background goroutine reads the
// device; the frame loop polls Ready, Width, Height and Frame.
type Source struct {
	grab   grabber
	clock  clock.Clock
	logger *zap.SugaredLogger
	opened time.Time

	mu        sync.RWMutex
	frame     image.Image
	timestamp time.Duration
	width     int
	height    int

	ready  atomic.Bool
	failed atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// Open starts reading from the device or file in opts.
func Open(opts Options, clk clock.Clock, logger *zap.SugaredLogger) (*Source, error) {
	c, err := openCapture(opts)
	if err != nil {
		return nil, err
	}
	logger.Infow("video source opened", "device", opts.Device, "file", opts.File, "width", c.width, "height", c.height, "fps", c.fps)
	return newSource(c, clk, logger), nil
}

func newSource(g grabber, clk clock.Clock, logger *zap.SugaredLogger) *Source {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Source{
		grab:   g,
		clock:  clk,
		logger: logger,
		opened: clk.Now(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Source) run(ctx context.Context) {
	defer close(s.done)

	var pace <-chan time.Time
	if secs := s.grab.Interval(); secs > 0 {
		ticker := s.clock.Ticker(time.Duration(secs * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if pace != nil {
			select {
			case <-ctx.Done():
				return
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return
		}

		img, err := s.grab.Grab()
		if errors.Is(err, errClosed) {
			return
		}
		if err != nil {
			if s.failed.Inc() == 1 {
				s.logger.Warnw("frame grab failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(retryDelay):
			}
			continue
		}
		s.failed.Store(0)
		s.store(img)
	}
}

func (s *Source) store(img image.Image) {
	b := img.Bounds()
	s.mu.Lock()
	s.frame = img
	s.timestamp = s.clock.Since(s.opened)
	s.width, s.height = b.Dx(), b.Dy()
	s.mu.Unlock()
	if b.Dx() > 0 && b.Dy() > 0 && !s.ready.Swap(true) {
		s.logger.Infow("first frame decoded", "width", b.Dx(), "height", b.Dy())
	}
}

// Ready reports whether a frame with a size has been decoded.
func (s *Source) Ready() bool {
	return s.ready.Load()
}

func (s *Source) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

func (s *Source) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// Frame returns the newest frame and the time since open it was decoded at.
// Frames are never mutated after they are published.
func (s *Source) Frame() (image.Image, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.timestamp
}

// Close stops the reader and releases the device.
func (s *Source) Close() error {
	s.cancel()
	// a grab in flight finishes before the device is released
	err := s.grab.Close()
	<-s.done
	return err
}
