package overlay

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

// drawMustache draws a handlebar mustache sized from the mouth and a monocle
// sized from the right eye opening.
func drawMustache(s Surface, f face, _ float64) {
	noseBottom := f.at(landmark.NoseBottom)
	upperLip := f.at(landmark.UpperLip)
	mouthW := f.at(landmark.MouthLeft).Distance(f.at(landmark.MouthRight))
	w, h := mouthW*0.7, mouthW*0.18
	cx := noseBottom.X
	cy := noseBottom.Y + (upperLip.Y-noseBottom.Y)*0.55

	s.SetFillStyle(linear(s, cx-w, cy, cx+w, cy,
		stop{0, hex("#1a0a00")}, stop{0.3, hex("#3d1f00")}, stop{0.5, hex("#4a2600")},
		stop{0.7, hex("#3d1f00")}, stop{1, hex("#1a0a00")}))
	for _, side := range sides {
		s.NewSubPath()
		s.MoveTo(cx, cy-h*0.3)
		s.CubicTo(cx+side*w*0.3, cy-h*0.8, cx+side*w*0.8, cy-h*0.6, cx+side*w, cy+h*0.2)
		s.CubicTo(cx+side*w*1.05, cy+h*0.8, cx+side*w*0.7, cy+h*1.1, cx+side*w*0.5, cy+h*0.5)
		s.CubicTo(cx+side*w*0.3, cy+h*0.1, cx+side*w*0.1, cy+h*0.4, cx, cy+h*0.2)
		s.ClosePath()
		s.Fill()
	}

	eye := f.at(landmark.RightEyeOuter)
	top, bottom := f.at(landmark.RightEyeUpperOuter), f.at(landmark.RightEyeLower)
	r := math.Abs(bottom.Y-top.Y) * 0.65
	my := (top.Y + bottom.Y) / 2

	brass := hex("#DAA520")
	s.SetColor(brass)
	s.SetLineWidth(r * 0.08)
	s.DrawCircle(eye.X, my, r)
	s.Stroke()

	s.SetLineWidth(r * 0.04)
	s.NewSubPath()
	s.MoveTo(eye.X, my+r)
	s.QuadraticTo(eye.X+r, cy+h*3, eye.X+r*2, cy+h*5)
	s.Stroke()

	s.SetColor(fade(white, 0.12))
	tiltedEllipse(s, eye.X-r*0.2, my-r*0.15, r*0.4, r*0.2, -0.4)
}

// drawSuperhero draws a domino mask with even-odd eye holes and gold trim.
func drawSuperhero(s Surface, f face, _ float64) {
	d := f.eyeDist()
	le, re := f.eyes()
	c := f.eyeMid()
	nose := f.at(landmark.NoseTip)
	forehead := f.at(landmark.ForeheadTop)

	s.SetFillStyle(linear(s, c.X-d, c.Y-d*0.4, c.X+d, c.Y+d*0.3,
		stop{0, hex("#c62828")}, stop{0.3, hex("#e53935")}, stop{0.5, hex("#b71c1c")},
		stop{0.7, hex("#e53935")}, stop{1, hex("#c62828")}))

	top := forehead.Y - d*0.05
	chin := nose.Y + d*0.05
	s.NewSubPath()
	s.MoveTo(c.X, top)
	s.CubicTo(c.X-d*0.35, forehead.Y-d*0.1, c.X-d*0.7, c.Y-d*0.15, c.X-d*0.85, c.Y)
	s.CubicTo(c.X-d*0.9, c.Y+d*0.15, c.X-d*0.55, chin, c.X, chin)
	s.CubicTo(c.X+d*0.55, chin, c.X+d*0.9, c.Y+d*0.15, c.X+d*0.85, c.Y)
	s.CubicTo(c.X+d*0.7, c.Y-d*0.15, c.X+d*0.35, forehead.Y-d*0.1, c.X, top)
	s.ClosePath()

	holeW, holeH := d*0.23, d*0.14
	s.DrawEllipse(le.X, le.Y, holeW, holeH)
	s.DrawEllipse(re.X, re.Y, holeW, holeH)
	s.SetFillRule(gg.FillRuleEvenOdd)
	s.Fill()

	s.SetColor(hex("#FFD700"))
	s.SetLineWidth(d * 0.02)
	for _, eye := range []gg.Point{le, re} {
		s.DrawEllipse(eye.X, eye.Y, holeW+d*0.02, holeH+d*0.02)
		s.Stroke()
	}
}

// drawPirate draws a bandana with a knot and an eye patch over the right eye.
func drawPirate(s Surface, f face, _ float64) {
	d := f.eyeDist()
	_, re := f.eyes()
	forehead := f.at(landmark.ForeheadTop)
	cx, fy := forehead.X, forehead.Y

	s.SetFillStyle(linear(s, cx-d, fy-d*0.35, cx+d, fy,
		stop{0, hex("#8B0000")}, stop{0.5, hex("#B22222")}, stop{1, hex("#8B0000")}))
	s.NewSubPath()
	s.MoveTo(cx-d*1.1, fy-d*0.05)
	s.QuadraticTo(cx, fy-d*0.45, cx+d*1.1, fy-d*0.05)
	s.LineTo(cx+d*1.05, fy+d*0.05)
	s.QuadraticTo(cx, fy-d*0.25, cx-d*1.05, fy+d*0.05)
	s.ClosePath()
	s.Fill()

	s.SetColor(hex("#660000"))
	s.DrawEllipse(cx+d*1.05, fy, d*0.08, d*0.06)
	s.Fill()

	s.SetColor(hex("#8B0000"))
	s.SetLineWidth(d * 0.03)
	s.SetLineCap(gg.LineCapRound)
	s.NewSubPath()
	s.MoveTo(cx+d*1.1, fy)
	s.QuadraticTo(cx+d*1.25, fy+d*0.2, cx+d*1.15, fy+d*0.4)
	s.Stroke()
	s.NewSubPath()
	s.MoveTo(cx+d*1.1, fy+d*0.02)
	s.QuadraticTo(cx+d*1.3, fy+d*0.15, cx+d*1.25, fy+d*0.35)
	s.Stroke()

	s.SetFillStyle(radial(s, re.X, re.Y, 0, re.X, re.Y, d*0.25,
		stop{0, hex("#2a2a2a")}, stop{1, hex("#111")}))
	s.DrawEllipse(re.X, re.Y, d*0.22, d*0.17)
	s.Fill()

	s.SetColor(hex("#333"))
	s.SetLineWidth(d * 0.02)
	s.NewSubPath()
	s.MoveTo(re.X-d*0.2, re.Y-d*0.08)
	s.LineTo(cx-d*1.05, fy)
	s.Stroke()
	s.NewSubPath()
	s.MoveTo(re.X+d*0.2, re.Y-d*0.08)
	s.LineTo(cx+d*1.05, fy-d*0.02)
	s.Stroke()
}

// drawAlien tints the face green and adds swaying antennae and large black eyes.
func drawAlien(s Surface, f face, t float64) {
	d := f.eyeDist()
	le, re := f.eyes()
	forehead := f.at(landmark.ForeheadTop)
	blush(s, gg.Point{X: forehead.X, Y: forehead.Y + d*0.3}, d*1.3, rgba(76, 175, 80, 0.12))

	s.SetLineCap(gg.LineCapRound)
	for _, side := range sides {
		baseX, baseY := forehead.X+side*d*0.35, forehead.Y-d*0.1
		tipX := baseX + side*d*0.25
		tipY := baseY - d*0.65 + math.Sin(t*3+side)*d*0.05

		s.SetColor(hex("#66BB6A"))
		s.SetLineWidth(d * 0.03)
		s.NewSubPath()
		s.MoveTo(baseX, baseY)
		s.QuadraticTo(baseX+side*d*0.05, baseY-d*0.35, tipX, tipY)
		s.Stroke()

		s.SetFillStyle(radial(s, tipX-d*0.03, tipY-d*0.03, 0, tipX, tipY, d*0.08,
			stop{0, hex("#a5d6a7")}, stop{0.6, hex("#66BB6A")}, stop{1, hex("#388E3C")}))
		s.DrawCircle(tipX, tipY, d*0.06)
		s.Fill()

		blush(s, gg.Point{X: tipX, Y: tipY}, d*0.15, rgba(76, 175, 80, 0.3+math.Sin(t*4+side)*0.15))
	}

	for _, eye := range []gg.Point{le, re} {
		s.SetFillStyle(radial(s, eye.X, eye.Y, d*0.05, eye.X, eye.Y, d*0.22,
			stop{0, hex("#111")}, stop{0.7, hex("#1a1a1a")}, stop{1, hex("#000")}))
		s.DrawEllipse(eye.X, eye.Y, d*0.2, d*0.28)
		s.Fill()

		s.SetColor(fade(white, 0.35))
		tiltedEllipse(s, eye.X-d*0.06, eye.Y-d*0.08, d*0.05, d*0.06, -0.3)
		s.SetColor(fade(white, 0.15))
		s.DrawCircle(eye.X+d*0.05, eye.Y+d*0.05, d*0.025)
		s.Fill()
	}
}

// drawVampire pales the face and adds dark circles, fangs and red lips.
func drawVampire(s Surface, f face, _ float64) {
	d := f.eyeDist()
	le, re := f.eyes()
	mouth := f.at(landmark.InnerLip)
	left, right := f.at(landmark.MouthLeft), f.at(landmark.MouthRight)
	forehead := f.at(landmark.ForeheadTop)

	blush(s, gg.Point{X: forehead.X, Y: forehead.Y + d*0.5}, d*1.3, rgba(220, 210, 230, 0.15))

	bruise := rgba(80, 0, 80, 0.2)
	for _, eye := range []gg.Point{le, re} {
		y := eye.Y + d*0.12
		s.SetFillStyle(radial(s, eye.X, y, 0, eye.X, y, d*0.18, stop{0, bruise}, stop{1, fade(bruise, 0)}))
		s.DrawEllipse(eye.X, y, d*0.18, d*0.1)
		s.Fill()
	}

	fangW, fangH := d*0.04, d*0.15
	fangY := mouth.Y + d*0.02
	for _, fx := range []float64{left.X + d*0.12, right.X - d*0.12} {
		s.SetFillStyle(linear(s, fx, fangY, fx, fangY+fangH, stop{0, hex("#ffffff")}, stop{1, hex("#e0e0e0")}))
		s.NewSubPath()
		s.MoveTo(fx-fangW, fangY)
		s.LineTo(fx, fangY+fangH)
		s.LineTo(fx+fangW, fangY)
		s.ClosePath()
		s.Fill()
	}

	s.SetColor(hex("#8B0000"))
	s.SetLineWidth(d * 0.02)
	s.SetLineCap(gg.LineCapRound)
	s.NewSubPath()
	s.MoveTo(left.X, left.Y)
	s.QuadraticTo(mouth.X, mouth.Y+d*0.04, right.X, right.Y)
	s.Stroke()
}
