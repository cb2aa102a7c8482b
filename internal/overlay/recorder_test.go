package overlay

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// primitive is one recorded geometry call, in device space.
type primitive struct {
	kind string
	pts  []gg.Point
	lens []float64
}

// recorder is a Surface that records geometry instead of rasterizing it.
type recorder struct {
	w, h   int
	m      gg.Matrix
	stack  []gg.Matrix
	clip   int
	clips  []int
	pushes int
	pops   int
	under  bool // Pop without Push
	prims  []primitive
}

func newRecorder(w, h int) *recorder {
	return &recorder{w: w, h: h, m: gg.Identity()}
}

func (r *recorder) scale() float64 {
	// uniform scale of a similarity transform
	x, y := r.m.TransformVector(1, 0)
	return math.Hypot(x, y)
}

func (r *recorder) point(x, y float64) gg.Point {
	tx, ty := r.m.TransformPoint(x, y)
	return gg.Point{X: tx, Y: ty}
}

func (r *recorder) add(kind string, pts []gg.Point, lens ...float64) {
	r.prims = append(r.prims, primitive{kind: kind, pts: pts, lens: lens})
}

func (r *recorder) of(kind string) []primitive {
	var out []primitive
	for _, p := range r.prims {
		if p.kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func (r *recorder) Width() int  { return r.w }
func (r *recorder) Height() int { return r.h }

func (r *recorder) Push() {
	r.pushes++
	r.stack = append(r.stack, r.m)
	r.clips = append(r.clips, r.clip)
}

func (r *recorder) Pop() {
	r.pops++
	if len(r.stack) == 0 {
		r.under = true
		return
	}
	r.m = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.clip = r.clips[len(r.clips)-1]
	r.clips = r.clips[:len(r.clips)-1]
}

func (r *recorder) Translate(x, y float64) { r.m = r.m.Translate(x, y) }
func (r *recorder) Rotate(a float64)       { r.m = r.m.Rotate(a) }
func (r *recorder) RotateAbout(a, x, y float64) {
	r.Translate(x, y)
	r.Rotate(a)
	r.Translate(-x, -y)
}
func (r *recorder) TransformPoint(x, y float64) (float64, float64) { return r.m.TransformPoint(x, y) }

func (r *recorder) NewSubPath() {}
func (r *recorder) MoveTo(x, y float64) {
	r.add("move", []gg.Point{r.point(x, y)})
}
func (r *recorder) LineTo(x, y float64) {
	r.add("line", []gg.Point{r.point(x, y)})
}
func (r *recorder) QuadraticTo(x1, y1, x2, y2 float64) {
	r.add("quad", []gg.Point{r.point(x1, y1), r.point(x2, y2)})
}
func (r *recorder) CubicTo(x1, y1, x2, y2, x3, y3 float64) {
	r.add("cubic", []gg.Point{r.point(x1, y1), r.point(x2, y2), r.point(x3, y3)})
}
func (r *recorder) ClosePath() {}
func (r *recorder) DrawEllipse(x, y, rx, ry float64) {
	r.add("ellipse", []gg.Point{r.point(x, y)}, rx*r.scale(), ry*r.scale())
}
func (r *recorder) DrawCircle(x, y, radius float64) {
	r.add("circle", []gg.Point{r.point(x, y)}, radius*r.scale())
}
func (r *recorder) DrawArc(x, y, radius, a1, a2 float64) {
	r.add("arc", []gg.Point{r.point(x, y)}, radius*r.scale())
}
func (r *recorder) DrawRectangle(x, y, w, h float64) {
	r.add("rect", []gg.Point{r.point(x, y), r.point(x+w, y), r.point(x+w, y+h), r.point(x, y+h)})
}

func (r *recorder) Fill()         { r.add("fill", nil) }
func (r *recorder) FillPreserve() { r.add("fill", nil) }
func (r *recorder) Stroke()       { r.add("stroke", nil) }
func (r *recorder) Clip()         { r.clip++ }
func (r *recorder) ResetClip()    { r.clip = 0 }

func (r *recorder) SetFillRule(gg.FillRule)   {}
func (r *recorder) SetColor(color.Color)      {}
func (r *recorder) SetFillStyle(gg.Pattern)   {}
func (r *recorder) SetStrokeStyle(gg.Pattern) {}
func (r *recorder) SetLineWidth(w float64)    { r.add("width", nil, w) }
func (r *recorder) SetLineCap(gg.LineCap)     {}
func (r *recorder) SetLineJoin(gg.LineJoin)   {}
