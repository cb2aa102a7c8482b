package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/dudu/mirrorbooth/internal/landmark"
	"github.com/dudu/mirrorbooth/internal/settings"
)

// Source is a polled video source
type Source interface {
	// Ready reports whether a frame has been decoded yet
	Ready() bool
	Width() int
	Height() int
	// Frame returns the latest frame and its presentation timestamp
	Frame() (image.Image, time.Duration)
}

// FaceDetector finds face landmarks in a frame
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) (landmark.Result, error)
}

// OverlayRenderer composites a filter onto the canvas
type OverlayRenderer interface {
	Render(dst *image.RGBA, landmarks []landmark.Point, filterID string, intensity int, now time.Time) error
}

// Presenter shows a finished frame
type Presenter interface {
	Present(frame *image.RGBA, status Status) error
}

// RenderSettings supplies the render configuration for each frame
type RenderSettings interface {
	Render() settings.Render
}
