package overlay

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// hex parses a #rgb or #rrggbb literal. Palette entries are constants, so a
// bad literal is a programming error.
func hex(s string) color.NRGBA {
	return hexA(s, 1)
}

// hexA is hex with an alpha in [0, 1].
func hexA(s string, alpha float64) color.NRGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha8(alpha)}
}

// rgba builds a colour from 8-bit channels and a [0, 1] alpha.
func rgba(r, g, b uint8, alpha float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: alpha8(alpha)}
}

// fade returns c with its alpha multiplied by k.
func fade(c color.NRGBA, k float64) color.NRGBA {
	c.A = alpha8(float64(c.A) / 255 * k)
	return c
}

func alpha8(a float64) uint8 {
	switch {
	case a <= 0 || math.IsNaN(a):
		return 0
	case a >= 1:
		return 255
	}
	return uint8(a*255 + 0.5)
}

var (
	white = rgba(255, 255, 255, 1)
	gold  = hex("#FFD700")
)

type stop struct {
	at float64
	c  color.Color
}

// linear builds a linear gradient between two user-space points. gg evaluates
// patterns in device space, so the endpoints go through the current transform.
func linear(s Surface, x0, y0, x1, y1 float64, stops ...stop) gg.Gradient {
	dx0, dy0 := s.TransformPoint(x0, y0)
	dx1, dy1 := s.TransformPoint(x1, y1)
	g := gg.NewLinearGradient(dx0, dy0, dx1, dy1)
	for _, st := range stops {
		g.AddColorStop(st.at, st.c)
	}
	return g
}

// radial builds a two-circle radial gradient in user space. Radii are not
// transformed; callers only use it under translation.
func radial(s Surface, x0, y0, r0, x1, y1, r1 float64, stops ...stop) gg.Gradient {
	dx0, dy0 := s.TransformPoint(x0, y0)
	dx1, dy1 := s.TransformPoint(x1, y1)
	g := gg.NewRadialGradient(dx0, dy0, r0, dx1, dy1, r1)
	for _, st := range stops {
		g.AddColorStop(st.at, st.c)
	}
	return g
}

// blush paints a soft disc fading from c to transparent.
func blush(s Surface, at gg.Point, r float64, c color.NRGBA) {
	s.SetFillStyle(radial(s, at.X, at.Y, 0, at.X, at.Y, r,
		stop{0, c}, stop{1, fade(c, 0)}))
	s.DrawCircle(at.X, at.Y, r)
	s.Fill()
}
