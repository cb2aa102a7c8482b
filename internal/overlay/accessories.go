package overlay

import (
	"image/color"

	"github.com/fogleman/gg"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

var frameColor = hex("#1a1a2e")

// drawGlasses draws two tinted lenses, a bridge and temple arms in a frame
// rotated with the eye line about the eye midpoint.
func drawGlasses(s Surface, f face, _ float64) {
	d := f.eyeDist()
	c := f.eyeMid()
	lensW, lensH := d*0.38, d*0.28
	lenses := [2]float64{-d * 0.26, d * 0.26}

	s.Translate(c.X, c.Y)
	s.Rotate(f.eyeAngle())

	s.SetLineCap(gg.LineCapRound)
	s.SetLineJoin(gg.LineJoinRound)

	dark, darker, mid := rgba(20, 20, 40, 0.7), rgba(20, 20, 40, 0.75), rgba(40, 30, 80, 0.55)
	for i, lx := range lenses {
		stops := []stop{{0, dark}, {0.4, mid}, {1, darker}}
		if i == 1 {
			stops = []stop{{0, darker}, {0.6, mid}, {1, dark}}
		}
		s.SetFillStyle(linear(s, lx-lensW, -lensH, lx+lensW, lensH, stops...))
		s.DrawEllipse(lx, 0, lensW, lensH)
		s.FillPreserve()
		s.SetColor(frameColor)
		s.SetLineWidth(d * 0.035)
		s.Stroke()
	}

	s.SetColor(fade(white, 0.18))
	for _, lx := range lenses {
		tiltedEllipse(s, lx-lensW*0.25, -lensH*0.4, lensW*0.45, lensH*0.25, -0.3)
	}

	s.SetColor(frameColor)
	s.SetLineWidth(d * 0.03)
	s.NewSubPath()
	s.MoveTo(lenses[0]+lensW, 0)
	s.QuadraticTo(0, -lensH*0.3, lenses[1]-lensW, 0)
	s.Stroke()

	s.SetLineWidth(d * 0.025)
	for i, side := range sides {
		edge := lenses[i] + side*lensW
		s.NewSubPath()
		s.MoveTo(edge, -lensH*0.1)
		s.LineTo(edge+side*d*0.3, lensH*0.2)
		s.Stroke()
	}
}

// drawCrown draws a five-point gold crown with a band and jewels on the forehead.
func drawCrown(s Surface, f face, _ float64) {
	forehead := f.at(landmark.ForeheadTop)
	w := f.templeDist()
	h := w * 0.55
	hw := w / 2
	cx := forehead.X
	baseY := forehead.Y - h*0.15
	topY := baseY - h

	s.SetFillStyle(linear(s, cx, topY, cx, baseY,
		stop{0, hex("#FFD700")}, stop{0.3, hex("#FFC107")}, stop{0.7, hex("#FFB300")}, stop{1, hex("#FF8F00")}))
	outline := [][2]float64{
		{-1, 0}, {-0.9, 0.45 - 1}, {-0.55, 0.6 - 1}, {-0.35, 0.15 - 1}, {0, -1},
		{0.35, 0.15 - 1}, {0.55, 0.6 - 1}, {0.9, 0.45 - 1}, {1, 0},
	}
	s.NewSubPath()
	for i, p := range outline {
		x, y := cx+p[0]*hw, baseY+p[1]*h
		if i == 0 {
			s.MoveTo(x, y)
		} else {
			s.LineTo(x, y)
		}
	}
	s.ClosePath()
	s.FillPreserve()
	s.SetColor(hex("#B8860B"))
	s.SetLineWidth(h * 0.025)
	s.Stroke()

	s.SetFillStyle(linear(s, cx-hw, baseY-h*0.15, cx+hw, baseY,
		stop{0, hex("#B8860B")}, stop{0.5, hex("#DAA520")}, stop{1, hex("#B8860B")}))
	s.DrawRectangle(cx-hw, baseY-h*0.12, w, h*0.12)
	s.Fill()

	ruby, sapphire, emerald := hex("#E53935"), hex("#1E88E5"), hex("#43A047")
	jewels := []struct {
		x, y, r float64
		c       color.NRGBA
	}{
		{cx, topY + h*0.35, h * 0.07, ruby},
		{cx - hw*0.5, topY + h*0.5, h * 0.055, sapphire},
		{cx + hw*0.5, topY + h*0.5, h * 0.055, sapphire},
		{cx - hw*0.25, baseY - h*0.06, h * 0.04, emerald},
		{cx + hw*0.25, baseY - h*0.06, h * 0.04, emerald},
		{cx, baseY - h*0.06, h * 0.045, ruby},
	}
	for _, j := range jewels {
		s.SetColor(j.c)
		s.DrawCircle(j.x, j.y, j.r)
		s.Fill()
		s.SetColor(fade(white, 0.5))
		s.DrawCircle(j.x-j.r*0.25, j.y-j.r*0.25, j.r*0.35)
		s.Fill()
	}
}

// drawParty draws a striped cone hat with polka dots, a pom-pom and a dashed
// elastic band.
func drawParty(s Surface, f face, _ float64) {
	forehead := f.at(landmark.ForeheadTop)
	baseW := f.templeDist() * 0.75
	hatH := baseW * 1.4
	cx := forehead.X
	baseY := forehead.Y - baseW*0.05
	tipY := baseY - hatH

	scoped(s, func() {
		s.NewSubPath()
		s.MoveTo(cx, tipY)
		s.LineTo(cx-baseW/2, baseY)
		s.LineTo(cx+baseW/2, baseY)
		s.ClosePath()
		s.Clip()
		defer s.ResetClip()

		s.SetFillStyle(linear(s, cx-baseW/2, baseY, cx+baseW/2, tipY,
			stop{0, hex("#e91e63")}, stop{0.5, hex("#9c27b0")}, stop{1, hex("#673ab7")}))
		s.DrawRectangle(cx-baseW/2, tipY, baseW, hatH)
		s.Fill()

		s.SetColor(fade(white, 0.2))
		for i := -5; i < 10; i++ {
			scoped(s, func() {
				s.Translate(cx-baseW+float64(i)*baseW*0.2, tipY)
				s.Rotate(0.3)
				s.DrawRectangle(0, 0, baseW*0.08, hatH*1.5)
				s.Fill()
			})
		}

		s.SetColor(rgba(255, 215, 0, 0.5))
		for i := 0; i < 8; i++ {
			dy := tipY + hatH*0.15 + float64(i%4)*hatH*0.22
			wAt := 0.0
			if hatH != 0 {
				wAt = baseW * (dy - tipY) / hatH
			}
			dx := cx - wAt*0.35
			if i > 3 {
				dx += wAt * 0.35
			}
			s.DrawCircle(dx, dy, baseW*0.035)
			s.Fill()
		}
	})

	s.SetFillStyle(radial(s, cx, tipY, 0, cx, tipY, baseW*0.1,
		stop{0, hex("#FFD700")}, stop{0.7, hex("#FFC107")}, stop{1, hex("#FF9800")}))
	s.DrawCircle(cx, tipY, baseW*0.08)
	s.Fill()

	s.SetColor(fade(white, 0.3))
	s.SetLineWidth(baseW * 0.012)
	for _, side := range sides {
		dashedQuadratic(s,
			gg.Point{X: cx + side*baseW/2, Y: baseY},
			gg.Point{X: cx + side*baseW, Y: baseY + baseW*0.25},
			gg.Point{X: cx + side*baseW*0.8, Y: baseY + baseW*0.4}, 12)
	}
}
