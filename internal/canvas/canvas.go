// Package canvas holds the frame buffer the loop draws the camera image into.
package canvas

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Neutral is the brightness percentage that leaves the video unchanged.
const Neutral = 100

// Canvas owns the display buffer. It is not safe for concurrent use.
type Canvas struct {
	img *image.RGBA
}

// New returns an empty canvas; call Resize before drawing.
func New() *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rectangle{})}
}

// Resize reallocates the buffer when the size changed and reports whether it did.
func (c *Canvas) Resize(width, height int) bool {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	if c.img.Bounds().Dx() == width && c.img.Bounds().Dy() == height {
		return false
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return true
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.img.Bounds().Dx(), c.img.Bounds().Dy()
}

// RGBA returns the backing image. It is reused across frames.
func (c *Canvas) RGBA() *image.RGBA {
	return c.img
}

// DrawFrame replaces the canvas contents with frame, flipped horizontally when
// mirror is set and scaled by brightness percent. A frame of a different size
// is stretched to fit.
func (c *Canvas) DrawFrame(frame image.Image, brightness int, mirror bool) {
	if frame == nil || c.img.Bounds().Empty() {
		return
	}
	src := frame
	if mirror {
		src = imaging.FlipH(src)
	}
	if brightness != Neutral {
		src = Brighten(src, brightness)
	}

	if src.Bounds().Size() == c.img.Bounds().Size() {
		draw.Draw(c.img, c.img.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(c.img, c.img.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// Brighten multiplies every colour channel by percent/100, clamping at white.
// Alpha is kept.
func Brighten(img image.Image, percent int) *image.NRGBA {
	k := math.Max(float64(percent), 0) / 100
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(math.Min(math.Round(float64(i)*k), 255))
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}
