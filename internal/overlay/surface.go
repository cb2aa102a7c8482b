package overlay

import (
	"image/color"

	"github.com/fogleman/gg"
)

// Surface is the drawing API the filter routines use. *gg.Context satisfies it.
type Surface interface {
	Width() int
	Height() int

	Push()
	Pop()
	Translate(x, y float64)
	Rotate(angle float64)
	RotateAbout(angle, x, y float64)
	TransformPoint(x, y float64) (float64, float64)

	NewSubPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(x1, y1, x2, y2 float64)
	CubicTo(x1, y1, x2, y2, x3, y3 float64)
	ClosePath()
	DrawEllipse(x, y, rx, ry float64)
	DrawCircle(x, y, r float64)
	DrawArc(x, y, r, angle1, angle2 float64)
	DrawRectangle(x, y, w, h float64)

	Fill()
	FillPreserve()
	Stroke()
	Clip()
	ResetClip()

	SetFillRule(rule gg.FillRule)
	SetColor(c color.Color)
	SetFillStyle(pattern gg.Pattern)
	SetStrokeStyle(pattern gg.Pattern)
	SetLineWidth(w float64)
	SetLineCap(lineCap gg.LineCap)
	SetLineJoin(lineJoin gg.LineJoin)
}

var _ Surface = (*gg.Context)(nil)

// scoped runs fn between Push and Pop so the transform and paint state are
// restored however fn returns. A clip set inside fn must be reset by fn.
func scoped(s Surface, fn func()) {
	s.Push()
	defer s.Pop()
	fn()
}
