package ui

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dudu/mirrorbooth/internal/overlay"
	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
)

var (
	panelColor  = color.NRGBA{A: 150}
	textColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	okColor     = color.NRGBA{R: 80, G: 220, B: 120, A: 255}
	absentColor = color.NRGBA{R: 230, G: 90, B: 90, A: 255}
)

const hudMargin = 12

// HUD draws the on-screen status panel.
type HUD struct {
	// face is built once and borrowed by each frame's context.
	face font.Face
}

// NewHUD parses the bundled Go font at the given point size.
func NewHUD(size float64) (*HUD, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HUD font: %w", err)
	}
	return &HUD{face: truetype.NewFace(f, &truetype.Options{Size: size})}, nil
}

// Lines returns the panel text for a frame.
func (h *HUD) Lines(status pipeline.Status, r settings.Render) []string {
	name := r.FilterID
	if def, ok := overlay.Lookup(r.FilterID); ok {
		name = def.Name
	}
	return []string{
		fmt.Sprintf("%s  %.1f fps", name, status.FPS),
		fmt.Sprintf("intensity %d%%  brightness %d%%", r.Intensity, r.Brightness),
		fmt.Sprintf("detect %s  total %s", status.Timing.Detection.Round(100*time.Microsecond), status.Timing.Total.Round(100*time.Microsecond)),
		"n/p filter  +/- intensity  h hide  q quit",
	}
}

// Draw paints the panel in the top left corner of dst.
func (h *HUD) Draw(dst *image.RGBA, status pipeline.Status, r settings.Render) {
	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(h.face)

	lines := h.Lines(status, r)
	lineHeight := dc.FontHeight() * 1.4
	width := 0.0
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > width {
			width = w
		}
	}
	dot := lineHeight / 3
	panelW := width + 3*hudMargin + 2*dot
	panelH := lineHeight*float64(len(lines)) + hudMargin

	dc.SetColor(panelColor)
	dc.DrawRoundedRectangle(hudMargin, hudMargin, panelW, panelH, 8)
	dc.Fill()

	// face indicator
	if status.FaceDetected {
		dc.SetColor(okColor)
	} else {
		dc.SetColor(absentColor)
	}
	dc.DrawCircle(2*hudMargin+dot, hudMargin+lineHeight/2+hudMargin/2, dot)
	dc.Fill()

	dc.SetColor(textColor)
	x := 2*hudMargin + 3*dot
	for i, l := range lines {
		y := hudMargin + hudMargin/2 + lineHeight*float64(i) + lineHeight/2
		dc.DrawStringAnchored(l, x, y, 0, 0.35)
	}
}
