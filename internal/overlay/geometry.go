package overlay

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

// face resolves landmark indices to pixel anchors for one frame.
type face struct {
	pts  []landmark.Point
	w, h float64
}

func newFace(pts []landmark.Point, width, height int) face {
	return face{pts: pts, w: float64(width), h: float64(height)}
}

// at returns landmark i in pixels; a missing index resolves to the origin.
func (f face) at(i int) gg.Point {
	if i < 0 || i >= len(f.pts) {
		return gg.Point{}
	}
	p := f.pts[i]
	return gg.Point{X: p.X * f.w, Y: p.Y * f.h}
}

// eyes returns the outer eye corners, left then right as seen on screen.
func (f face) eyes() (gg.Point, gg.Point) {
	return f.at(landmark.LeftEyeOuter), f.at(landmark.RightEyeOuter)
}

// eyeDist is the scale unit of most filters.
func (f face) eyeDist() float64 {
	l, r := f.eyes()
	return l.Distance(r)
}

// eyeAngle is the tilt of the eye line.
func (f face) eyeAngle() float64 {
	l, r := f.eyes()
	return math.Atan2(r.Y-l.Y, r.X-l.X)
}

// eyeMid is the midpoint of the eye line.
func (f face) eyeMid() gg.Point {
	l, r := f.eyes()
	return l.Interpolate(r, 0.5)
}

// templeDist is the scale unit of headwear.
func (f face) templeDist() float64 {
	return f.at(landmark.LeftTemple).Distance(f.at(landmark.RightTemple))
}

// sides iterates the left (-1) and right (+1) halves of a symmetric shape.
var sides = [2]float64{-1, 1}
