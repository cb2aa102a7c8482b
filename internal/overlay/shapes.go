package overlay

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// heart fills a heart of the given size centred on (cx, cy).
func heart(s Surface, cx, cy, size float64, c color.Color) {
	top := cy - size*0.4
	s.NewSubPath()
	s.MoveTo(cx, cy+size*0.55)
	s.CubicTo(cx-size*0.65, cy+size*0.1, cx-size*0.65, top-size*0.15, cx-size*0.325, top-size*0.15)
	s.CubicTo(cx-size*0.1, top-size*0.15, cx, top+size*0.05, cx, top+size*0.2)
	s.CubicTo(cx, top+size*0.05, cx+size*0.1, top-size*0.15, cx+size*0.325, top-size*0.15)
	s.CubicTo(cx+size*0.65, top-size*0.15, cx+size*0.65, cy+size*0.1, cx, cy+size*0.55)
	s.ClosePath()
	s.SetColor(c)
	s.Fill()
}

// star fills a five-pointed star. rotation turns it about its centre.
func star(s Surface, cx, cy, outer, inner, rotation float64, c color.Color) {
	s.NewSubPath()
	for i := 0; i < 10; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*math.Pi/5 - math.Pi/2 + rotation
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			s.MoveTo(x, y)
		} else {
			s.LineTo(x, y)
		}
	}
	s.ClosePath()
	s.SetColor(c)
	s.Fill()
}

// tiltedEllipse fills an ellipse rotated by angle about its centre.
func tiltedEllipse(s Surface, x, y, rx, ry, angle float64) {
	scoped(s, func() {
		s.RotateAbout(angle, x, y)
		s.DrawEllipse(x, y, rx, ry)
		s.Fill()
	})
}

// dashedQuadratic strokes every other of n equal-parameter pieces of the
// quadratic curve p0-p1-p2.
func dashedQuadratic(s Surface, p0, p1, p2 gg.Point, n int) {
	at := func(t float64) gg.Point {
		u := 1 - t
		return gg.Point{
			X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
			Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
		}
	}
	const steps = 4
	for i := 0; i < n; i += 2 {
		s.NewSubPath()
		for k := 0; k <= steps; k++ {
			p := at((float64(i) + float64(k)/steps) / float64(n))
			if k == 0 {
				s.MoveTo(p.X, p.Y)
			} else {
				s.LineTo(p.X, p.Y)
			}
		}
	}
	s.Stroke()
}
