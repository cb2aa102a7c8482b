package kiosk

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
)

type fakeLoop struct {
	state pipeline.State
	face  bool
}

func (l *fakeLoop) State() pipeline.State { return l.state }
func (l *fakeLoop) FaceDetected() bool    { return l.face }

func setup(t *testing.T, edit func(*settings.Settings)) (*Director, *settings.Store, *fakeLoop, *clock.Mock) {
	t.Helper()
	s := settings.Default()
	if edit != nil {
		edit(&s)
	}
	store, err := settings.NewStore(s)
	test.That(t, err, test.ShouldBeNil)
	loop := &fakeLoop{state: pipeline.Idle, face: true}
	clk := clock.NewMock()
	return New(store, loop, clk, zaptest.NewLogger(t).Sugar()), store, loop, clk
}

// advance moves the clock forward one second at a time, ticking each second
func advance(d *Director, clk *clock.Mock, seconds int) {
	for i := 0; i < seconds; i++ {
		clk.Add(time.Second)
		d.Tick()
	}
}

func TestAutoRotateCadence(t *testing.T) {
	d, store, _, clk := setup(t, nil)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "glasses")

	advance(d, clk, 4)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "glasses")
	advance(d, clk, 1)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "hearts")
	advance(d, clk, 5)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "crown")
}

func TestAutoRotateWrapsThroughNone(t *testing.T) {
	d, store, _, clk := setup(t, func(s *settings.Settings) {
		s.FilterID = "stars"
		s.RotationInterval = 2
	})
	advance(d, clk, 2)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "none")
	advance(d, clk, 2)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "glasses")
}

func TestExternalChangeRestartsInterval(t *testing.T) {
	d, store, _, clk := setup(t, nil)
	advance(d, clk, 3)
	_, err := store.SelectFilter("pirate")
	test.That(t, err, test.ShouldBeNil)

	// the interval restarts at the tick that notices the change
	advance(d, clk, 5)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "pirate")
	advance(d, clk, 1)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "party")
}

func TestNoRotationWhenDisabledOrWaiting(t *testing.T) {
	d, store, loop, clk := setup(t, func(s *settings.Settings) { s.AutoRotate = false })
	advance(d, clk, 20)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "glasses")

	d, store, loop, clk = setup(t, nil)
	loop.state = pipeline.WaitingForSource
	advance(d, clk, 20)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "glasses")

	loop.state = pipeline.Idle
	advance(d, clk, 1)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "hearts")
}

func TestIdle(t *testing.T) {
	d, _, loop, clk := setup(t, nil)
	advance(d, clk, 10)
	test.That(t, d.Idle(), test.ShouldBeFalse)

	loop.face = false
	advance(d, clk, 2)
	test.That(t, d.Idle(), test.ShouldBeFalse)
	advance(d, clk, 1)
	test.That(t, d.Idle(), test.ShouldBeTrue)

	loop.face = true
	advance(d, clk, 1)
	test.That(t, d.Idle(), test.ShouldBeFalse)
}

func TestRun(t *testing.T) {
	d, store, _, clk := setup(t, func(s *settings.Settings) { s.RotationInterval = 2 })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 500 && store.Render().FilterID == "glasses"; i++ {
		time.Sleep(time.Millisecond)
		clk.Add(time.Second)
	}
	test.That(t, store.Render().FilterID, test.ShouldNotEqual, "glasses")

	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}
