package overlay

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

var heartColors = []color.NRGBA{
	hex("#ff3b7f"), hex("#ff6b9d"), hex("#ff1493"), hex("#ff69b4"),
	hex("#e91e63"), hex("#f06292"), hex("#ff4081"),
}

// drawHearts orbits seven pulsing hearts above the head and blushes the cheeks.
func drawHearts(s Surface, f face, t float64) {
	d := f.eyeDist()
	forehead := f.at(landmark.ForeheadTop)

	for i, c := range heartColors {
		fi := float64(i)
		angle := fi/7*2*math.Pi + t*0.5
		rx := d * (0.6 + math.Sin(t+fi)*0.15)
		ry := d * 0.35
		x := forehead.X + math.Cos(angle)*rx
		y := forehead.Y - d*0.5 + math.Sin(angle)*ry - math.Sin(t*1.5+fi)*d*0.08
		size := d * (0.12 + math.Sin(t*2+fi*1.3)*0.03)
		heart(s, x, y, size, c)
	}

	pink := rgba(255, 105, 180, 0.25)
	blush(s, f.at(landmark.LeftCheek), d*0.25, pink)
	blush(s, f.at(landmark.RightCheek), d*0.25, pink)
}

var rainbowColors = []color.NRGBA{
	hex("#FF0000"), hex("#FF7F00"), hex("#FFFF00"), hex("#00FF00"),
	hex("#0000FF"), hex("#4B0082"), hex("#9400D3"),
}

// drawRainbow arcs seven bands over the forehead with twinkling stars at the ends.
func drawRainbow(s Surface, f face, t float64) {
	forehead := f.at(landmark.ForeheadTop)
	arcW := f.templeDist() * 0.7
	band := arcW * 0.04

	s.SetLineCap(gg.LineCapRound)
	s.SetLineWidth(band)
	for i, c := range rainbowColors {
		r := arcW*0.85 - float64(i)*band*1.3
		if r <= 0 {
			continue
		}
		s.SetColor(fade(c, 0.85))
		s.NewSubPath()
		s.DrawArc(forehead.X, forehead.Y, r, math.Pi, 2*math.Pi)
		s.Stroke()
	}

	for _, side := range sides {
		for i := 0.0; i < 3; i++ {
			x := forehead.X + side*arcW*0.85 + math.Sin(t*2+i)*arcW*0.1
			y := forehead.Y + math.Cos(t*3+i*2)*arcW*0.08
			size := arcW * (0.04 + math.Sin(t*4+i)*0.02)
			star(s, x, y, size, size*0.4, t, gold)
		}
	}
}

const sparkleCycle = 1.5

var starColors = []color.NRGBA{
	hex("#FFD700"), hex("#FFF176"), hex("#FFE082"), hex("#FFECB3"), hex("#FFC107"),
}

// drawStars puts spinning stars on the eyes with smaller ones in orbit and
// sparkles drifting upwards.
func drawStars(s Surface, f face, t float64) {
	d := f.eyeDist()
	le, re := f.eyes()

	for e, eye := range []gg.Point{le, re} {
		size := d * 0.18
		star(s, eye.X, eye.Y, size, size*0.45, t*0.5, gold)

		for i, c := range starColors {
			fi := float64(i)
			angle := fi/5*2*math.Pi + t*(1.5+float64(e)*0.3)
			x := eye.X + math.Cos(angle)*d*0.35
			y := eye.Y + math.Sin(angle)*d*0.35
			ss := d * (0.04 + math.Sin(t*3+fi*1.7)*0.015)
			star(s, x, y, ss, ss*0.4, t*2+fi, c)
		}
	}

	// Sparkles rise one and a half eye distances, fading in and out. The
	// phase is in eye-distance units and only travel scales with d.
	mid := le.Interpolate(re, 0.5)
	for i := 0.0; i < 8; i++ {
		phase := math.Mod(t*0.3+i*0.4, sparkleCycle)
		travel := d * phase
		alpha := math.Sin(math.Pi * phase / sparkleCycle)
		x := mid.X + math.Sin(t*1.5+i*2.5)*d*0.8
		y := le.Y - d*0.3 - travel
		size := d * (0.03 + math.Sin(t*3+i)*0.015)
		star(s, x, y, size, size*0.4, t+i, fade(gold, alpha*0.7))
	}
}
