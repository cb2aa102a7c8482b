package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

// shadow is a soft drop shadow or glow under a filter's paint. Sigma and Dy
// are multiples of the eye distance.
type shadow struct {
	Tint  color.NRGBA
	Glow  bool // keep the paint colours instead of Tint, scaled by Tint.A
	Sigma float64
	Dy    float64
}

type routine struct {
	draw     func(s Surface, f face, t float64)
	shadow   *shadow
	animated bool
}

var routines = map[string]routine{
	"glasses":   {draw: drawGlasses, shadow: &shadow{Tint: rgba(0, 0, 0, 0.4), Sigma: 0.06, Dy: 0.04}},
	"hearts":    {draw: drawHearts, shadow: &shadow{Tint: rgba(0, 0, 0, 1), Glow: true, Sigma: 0.035}, animated: true},
	"crown":     {draw: drawCrown, shadow: &shadow{Tint: rgba(255, 215, 0, 0.5), Sigma: 0.1}},
	"mustache":  {draw: drawMustache, shadow: &shadow{Tint: rgba(0, 0, 0, 0.3), Sigma: 0.03}},
	"cat":       {draw: drawCat, shadow: &shadow{Tint: rgba(0, 0, 0, 0.3), Sigma: 0.04}},
	"dog":       {draw: drawDog, shadow: &shadow{Tint: rgba(0, 0, 0, 0.2), Sigma: 0.05}},
	"bunny":     {draw: drawBunny, shadow: &shadow{Tint: rgba(0, 0, 0, 0.2), Sigma: 0.05}},
	"superhero": {draw: drawSuperhero, shadow: &shadow{Tint: rgba(180, 0, 0, 0.4), Sigma: 0.075}},
	"pirate":    {draw: drawPirate, shadow: &shadow{Tint: rgba(0, 0, 0, 0.3), Sigma: 0.04}},
	"party":     {draw: drawParty, shadow: &shadow{Tint: rgba(0, 0, 0, 0.3), Sigma: 0.05}},
	"alien":     {draw: drawAlien, animated: true},
	"vampire":   {draw: drawVampire, shadow: &shadow{Tint: rgba(0, 0, 0, 0.3), Sigma: 0.02}},
	"rainbow":   {draw: drawRainbow, shadow: &shadow{Tint: rgba(0, 0, 0, 1), Glow: true, Sigma: 0.03}, animated: true},
	"stars":     {draw: drawStars, shadow: &shadow{Tint: rgba(0, 0, 0, 1), Glow: true, Sigma: 0.05}, animated: true},
}

// Animated reports whether a filter changes with time for a still face.
func Animated(id string) bool {
	return routines[id].animated
}

// Options configures a Renderer.
type Options struct {
	// Shadows enables the blurred drop shadows and glows.
	Shadows bool
}

// Renderer draws catalog filters over a frame. It reuses scratch buffers
// between calls and must not be shared between goroutines.
type Renderer struct {
	opts  Options
	layer *image.RGBA
	group *image.RGBA
}

// NewRenderer returns a Renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Draw runs the routine for filterID on s, sized to s. The routine runs inside
// Push/Pop so s is left in the state it was given. "none" draws nothing.
func (r *Renderer) Draw(s Surface, landmarks []landmark.Point, filterID string, now time.Time) error {
	if filterID == None {
		return nil
	}
	rt, ok := routines[filterID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, filterID)
	}
	f := newFace(landmarks, s.Width(), s.Height())
	t := float64(now.UnixNano()) / float64(time.Second)
	scoped(s, func() { rt.draw(s, f, t) })
	return nil
}

// Render composites filterID onto dst at intensity percent (clamped to
// 0..100). Landmarks must already be mirrored to match dst. dst is untouched
// for "none" and unknown ids, and left unchanged at intensity 0.
func (r *Renderer) Render(dst *image.RGBA, landmarks []landmark.Point, filterID string, intensity int, now time.Time) error {
	if filterID == None {
		return nil
	}
	rt, ok := routines[filterID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, filterID)
	}
	intensity = min(max(intensity, 0), 100)

	bounds := dst.Bounds()
	r.layer = scratch(r.layer, bounds.Size())
	if err := r.Draw(gg.NewContextForRGBA(r.layer), landmarks, filterID, now); err != nil {
		return err
	}

	src := r.layer
	if r.opts.Shadows && rt.shadow != nil {
		d := newFace(landmarks, bounds.Dx(), bounds.Dy()).eyeDist()
		src = r.withShadow(*rt.shadow, d)
	}

	opacity := image.NewUniform(color.Alpha{A: uint8(intensity * 255 / 100)})
	draw.DrawMask(dst, bounds, src, image.Point{}, opacity, image.Point{}, draw.Over)
	return nil
}

// withShadow returns the layer composited over its own blurred, tinted and
// offset silhouette.
func (r *Renderer) withShadow(sh shadow, d float64) *image.RGBA {
	sigma := sh.Sigma * d
	if sigma < 0.5 {
		return r.layer
	}
	box, ok := opaqueBounds(r.layer)
	if !ok {
		return r.layer
	}

	dy := int(math.Round(sh.Dy * d))
	pad := int(math.Ceil(3 * sigma))
	area := box.Inset(-pad).Intersect(r.layer.Bounds())

	blurred := imaging.Blur(imaging.Crop(r.layer, area), sigma)
	tint := sh.Tint
	silhouette := imaging.AdjustFunc(blurred, func(c color.NRGBA) color.NRGBA {
		a := uint8(uint16(c.A) * uint16(tint.A) / 255)
		if sh.Glow {
			return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
		}
		return color.NRGBA{R: tint.R, G: tint.G, B: tint.B, A: a}
	})

	r.group = scratch(r.group, r.layer.Bounds().Size())
	draw.Draw(r.group, area.Add(image.Pt(0, dy)), silhouette, image.Point{}, draw.Src)
	draw.Draw(r.group, r.group.Bounds(), r.layer, image.Point{}, draw.Over)
	return r.group
}

// scratch returns a cleared buffer of the given size, reusing buf when it fits.
func scratch(buf *image.RGBA, size image.Point) *image.RGBA {
	if buf == nil || buf.Bounds().Size() != size {
		return image.NewRGBA(image.Rectangle{Max: size})
	}
	clear(buf.Pix)
	return buf
}

// opaqueBounds is the bounding box of pixels with non-zero alpha.
func opaqueBounds(img *image.RGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4+3] == 0 {
				continue
			}
			px := b.Min.X + x
			minX, maxX = min(minX, px), max(maxX, px)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
