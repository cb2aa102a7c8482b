// Package kiosk runs the unattended booth behaviours: filter auto-rotation
// and idle tracking.
package kiosk

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/dudu/mirrorbooth/internal/overlay"
	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
)

// Interval is how often the director checks the booth.
const Interval = time.Second

// Loop is the part of the frame loop the director watches.
type Loop interface {
	State() pipeline.State
	FaceDetected() bool
}

// Store is the part of the settings store the director uses.
type Store interface {
	Render() settings.Render
	Kiosk() settings.Kiosk
	SelectFilter(id string) (settings.Settings, error)
}

// Director rotates filters while nobody touches the controls and tracks
// whether anyone is in front of the booth.
type Director struct {
	store  Store
	loop   Loop
	clock  clock.Clock
	logger *zap.SugaredLogger

	mu           sync.Mutex
	lastRotation time.Time
	lastFace     time.Time
	lastFilter   string

	idle atomic.Bool
}

// New returns a director. Both timers start now.
func New(store Store, loop Loop, clk clock.Clock, logger *zap.SugaredLogger) *Director {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &Director{
		store:        store,
		loop:         loop,
		clock:        clk,
		logger:       logger,
		lastRotation: now,
		lastFace:     now,
		lastFilter:   store.Render().FilterID,
	}
}

// Run ticks once per Interval until ctx is cancelled.
func (d *Director) Run(ctx context.Context) error {
	ticker := d.clock.Ticker(Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick updates idle state and rotates the filter when it is due.
func (d *Director) Tick() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	k := d.store.Kiosk()

	if d.loop.FaceDetected() {
		d.lastFace = now
		if d.idle.Swap(false) {
			d.logger.Info("booth active")
		}
	} else if now.Sub(d.lastFace) >= k.Idle() && !d.idle.Swap(true) {
		d.logger.Infow("booth idle", "since", d.lastFace)
	}

	// someone else picked a filter: restart the interval from here
	current := d.store.Render().FilterID
	if current != d.lastFilter {
		d.lastFilter = current
		d.lastRotation = now
		return
	}

	if !k.AutoRotate || d.loop.State() == pipeline.WaitingForSource {
		return
	}
	if now.Sub(d.lastRotation) < k.Rotation() {
		return
	}
	next := overlay.Step(current, 1)
	if _, err := d.store.SelectFilter(next); err != nil {
		d.logger.Warnw("auto-rotate failed", "filter", next, "error", err)
		return
	}
	d.logger.Debugw("auto-rotated filter", "from", current, "to", next)
	d.lastFilter = next
	d.lastRotation = now
}

// Idle reports whether no face has been seen for the idle timeout.
func (d *Director) Idle() bool {
	return d.idle.Load()
}
