package overlay

import (
	"github.com/fogleman/gg"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

func drawCat(s Surface, f face, _ float64) {
	d := f.eyeDist()
	nose := f.at(landmark.NoseTip)
	forehead := f.at(landmark.ForeheadTop)
	ear := d * 0.55

	for _, side := range sides {
		x := forehead.X + side*d*0.65
		y := forehead.Y - ear*0.3

		s.SetFillStyle(linear(s, x, y-ear, x, y, stop{0, hex("#f5e6d3")}, stop{1, hex("#e8d5c0")}))
		s.NewSubPath()
		s.MoveTo(x-side*ear*0.45, y+ear*0.1)
		s.QuadraticTo(x-side*ear*0.15, y-ear, x+side*ear*0.05, y-ear*0.85)
		s.QuadraticTo(x+side*ear*0.5, y-ear*0.3, x+side*ear*0.35, y+ear*0.1)
		s.ClosePath()
		s.Fill()

		s.SetFillStyle(linear(s, x, y-ear*0.7, x, y, stop{0, hex("#ffb3c6")}, stop{1, hex("#ff8fab")}))
		s.NewSubPath()
		s.MoveTo(x-side*ear*0.25, y)
		s.QuadraticTo(x-side*ear*0.05, y-ear*0.65, x+side*ear*0.05, y-ear*0.55)
		s.QuadraticTo(x+side*ear*0.3, y-ear*0.15, x+side*ear*0.2, y)
		s.ClosePath()
		s.Fill()
	}

	s.SetColor(rgba(100, 80, 60, 0.7))
	s.SetLineWidth(d * 0.012)
	s.SetLineCap(gg.LineCapRound)
	for _, side := range sides {
		for i := 0.0; i < 3; i++ {
			startY := nose.Y + d*0.05 + i*d*0.08
			endY := startY + (i-1)*d*0.06
			s.NewSubPath()
			s.MoveTo(nose.X+side*d*0.12, startY)
			s.QuadraticTo(nose.X+side*d*0.5, (startY+endY)/2-d*0.03, nose.X+side*d*0.9, endY)
			s.Stroke()
		}
	}

	n := d * 0.07
	s.SetFillStyle(radial(s, nose.X, nose.Y-d*0.02, 0, nose.X, nose.Y, d*0.08,
		stop{0, hex("#ff8fab")}, stop{1, hex("#e75480")}))
	s.NewSubPath()
	s.MoveTo(nose.X, nose.Y+n*0.3)
	s.LineTo(nose.X-n, nose.Y-n*0.5)
	s.QuadraticTo(nose.X, nose.Y-n, nose.X+n, nose.Y-n*0.5)
	s.ClosePath()
	s.Fill()
}

func drawDog(s Surface, f face, _ float64) {
	d := f.eyeDist()
	nose := f.at(landmark.NoseTip)
	mouth := f.at(landmark.InnerLip)
	forehead := f.at(landmark.ForeheadTop)

	for _, side := range sides {
		x := forehead.X + side*d*0.95
		y := forehead.Y + d*0.15

		s.SetFillStyle(linear(s, x, y-d*0.2, x, y+d*0.7,
			stop{0, hex("#a0704a")}, stop{0.5, hex("#8b5e3c")}, stop{1, hex("#6d4528")}))
		s.NewSubPath()
		s.MoveTo(x-side*d*0.15, y-d*0.15)
		s.CubicTo(x+side*d*0.15, y-d*0.1, x+side*d*0.3, y+d*0.3, x+side*d*0.12, y+d*0.65)
		s.CubicTo(x, y+d*0.72, x-side*d*0.2, y+d*0.55, x-side*d*0.3, y+d*0.2)
		s.ClosePath()
		s.Fill()
	}

	s.SetFillStyle(linear(s, mouth.X, mouth.Y, mouth.X, mouth.Y+d*0.35,
		stop{0, hex("#ff7eb3")}, stop{1, hex("#ff4081")}))
	s.DrawEllipse(mouth.X, mouth.Y+d*0.18, d*0.1, d*0.17)
	s.Fill()
	s.SetColor(rgba(200, 50, 100, 0.3))
	s.SetLineWidth(d * 0.015)
	s.NewSubPath()
	s.MoveTo(mouth.X, mouth.Y+d*0.05)
	s.LineTo(mouth.X, mouth.Y+d*0.3)
	s.Stroke()

	s.SetFillStyle(radial(s, nose.X-d*0.03, nose.Y-d*0.03, 0, nose.X, nose.Y, d*0.1,
		stop{0, hex("#333")}, stop{1, hex("#111")}))
	s.DrawEllipse(nose.X, nose.Y, d*0.09, d*0.07)
	s.Fill()
	s.SetColor(fade(white, 0.15))
	tiltedEllipse(s, nose.X-d*0.02, nose.Y-d*0.02, d*0.03, d*0.02, -0.5)
}

func drawBunny(s Surface, f face, _ float64) {
	d := f.eyeDist()
	forehead := f.at(landmark.ForeheadTop)
	nose := f.at(landmark.NoseTip)
	earW, earH := d*0.18, d*0.75

	for _, side := range sides {
		x := forehead.X + side*d*0.35
		y := forehead.Y - earH*0.65

		s.SetFillStyle(linear(s, x, y-earH, x, y+earH, stop{0, hex("#f5f0eb")}, stop{1, hex("#e8ddd3")}))
		tiltedEllipse(s, x, y, earW, earH, side*0.15)

		s.SetFillStyle(linear(s, x, y-earH*0.7, x, y+earH*0.5, stop{0, hex("#ffc1cc")}, stop{1, hex("#ffb3c6")}))
		tiltedEllipse(s, x, y, earW*0.6, earH*0.7, side*0.15)
	}

	s.SetFillStyle(radial(s, nose.X, nose.Y, 0, nose.X, nose.Y, d*0.06,
		stop{0, hex("#ffb3c6")}, stop{1, hex("#ff8fab")}))
	s.DrawEllipse(nose.X, nose.Y, d*0.055, d*0.04)
	s.Fill()

	pink := rgba(255, 182, 193, 0.3)
	blush(s, f.at(landmark.LeftCheek), d*0.18, pink)
	blush(s, f.at(landmark.RightCheek), d*0.18, pink)
}
