// Package ui shows the composited mirror in a native window with a status HUD
// and keyboard controls.
package ui

import (
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"github.com/dudu/mirrorbooth/internal/pipeline"
)

// Window presents frames in an OpenCV window. It must be used from the
// main OS thread.
type Window struct {
	window *gocv.Window
	hud    *HUD
	store  Store
	logger *zap.SugaredLogger

	// frame is the canvas copy the HUD is drawn on
	frame *image.RGBA

	done      chan struct{}
	closeOnce sync.Once
}

// NewWindow opens a window sized to width x height.
func NewWindow(title string, width, height int, store Store, logger *zap.SugaredLogger) (*Window, error) {
	hud, err := NewHUD(18)
	if err != nil {
		return nil, err
	}
	window := gocv.NewWindow(title)
	// force the window to appear on macOS
	window.ResizeWindow(width, height)
	window.MoveWindow(100, 100)
	return &Window{
		window: window,
		hud:    hud,
		store:  store,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Present shows frame, with the HUD when enabled, and handles one key press.
func (w *Window) Present(frame *image.RGBA, status pipeline.Status) error {
	if w.frame == nil || w.frame.Bounds() != frame.Bounds() {
		w.frame = image.NewRGBA(frame.Bounds())
	}
	draw.Draw(w.frame, w.frame.Bounds(), frame, frame.Bounds().Min, draw.Src)
	if w.store.Kiosk().ShowUI {
		w.hud.Draw(w.frame, status, w.store.Render())
	}

	mat, err := gocv.ImageToMatRGBA(w.frame)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()
	w.window.IMShow(mat)

	// WaitKey must run every frame to pump window events
	w.handleKey(w.window.WaitKey(1))
	return nil
}

func (w *Window) handleKey(key int) {
	a := keyAction(key)
	if a == actionNone {
		return
	}
	quit, err := apply(w.store, a)
	if err != nil {
		w.logger.Warnw("key action failed", "key", key, "error", err)
	}
	if quit {
		w.logger.Info("quit requested from window")
		w.closeOnce.Do(func() { close(w.done) })
	}
}

// Done is closed when the user asks to quit.
func (w *Window) Done() <-chan struct{} {
	return w.done
}

// Close closes the window.
func (w *Window) Close() error {
	if w.window != nil {
		err := w.window.Close()
		w.window = nil
		return err
	}
	return nil
}
