package detector

import (
	"context"
	"image"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

// Detector turns a frame into landmark sets.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (landmark.Result, error)
	Close() error
}

// Keypoint is a pixel-space point from the box detector.
type Keypoint struct {
	X, Y float32
}

// BoundingBox represents a face bounding box
type BoundingBox struct {
	X1, Y1 float32 // top-left
	X2, Y2 float32 // bottom-right
}

// Width returns box width
func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns box height
func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Center returns box center point
func (b BoundingBox) Center() Keypoint {
	return Keypoint{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Keypoints represents the 5 SCRFD keypoints
type Keypoints struct {
	LeftEye    Keypoint // index 0
	RightEye   Keypoint // index 1
	Nose       Keypoint // index 2
	LeftMouth  Keypoint // index 3
	RightMouth Keypoint // index 4
}

// Box is a face proposal from SCRFD, in source pixels.
type Box struct {
	BoundingBox BoundingBox
	Keypoints   Keypoints
	Score       float32
}
