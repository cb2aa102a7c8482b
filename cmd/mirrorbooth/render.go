package main

import (
	"fmt"
	"os"
	"time"

	"github.com/disintegration/imaging"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/dudu/mirrorbooth/internal/canvas"
	"github.com/dudu/mirrorbooth/internal/landmark"
	"github.com/dudu/mirrorbooth/internal/overlay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type renderOptions struct {
	image      string
	landmarks  string
	filter     string
	intensity  int
	brightness int
	mirror     bool
	shadows    bool
	out        string
	at         string
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a filter onto a still image with saved landmarks",
	Example: `  mirrorbooth render --image face.jpg --landmarks face.json --filter crown --out crown.png
  mirrorbooth render --image face.jpg --landmarks face.json --filter hearts --at 2024-01-01T00:00:01.5Z --out hearts.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderStill(renderOpts)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.image, "image", "", "input image (required)")
	f.StringVar(&renderOpts.landmarks, "landmarks", "", "landmarks JSON: a detection result or a bare point list (required)")
	f.StringVar(&renderOpts.filter, "filter", "glasses", "filter id")
	f.IntVar(&renderOpts.intensity, "intensity", 100, "overlay opacity percent")
	f.IntVar(&renderOpts.brightness, "brightness", canvas.Neutral, "video brightness percent")
	f.BoolVar(&renderOpts.mirror, "mirror", false, "mirror the image and landmarks")
	f.BoolVar(&renderOpts.shadows, "shadows", true, "draw drop shadows and glows")
	f.StringVar(&renderOpts.out, "out", "out.png", "output image; format follows the extension")
	f.StringVar(&renderOpts.at, "at", "", "animation time as RFC 3339 (default now)")
	_ = renderCmd.MarkFlagRequired("image")
	_ = renderCmd.MarkFlagRequired("landmarks")
	rootCmd.AddCommand(renderCmd)
}

// readLandmarks accepts {"faces":[{"landmarks":[...]}]} or a bare [...] list.
func readLandmarks(path string) ([]landmark.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read landmarks: %w", err)
	}
	var pts []landmark.Point
	if err := json.Unmarshal(data, &pts); err == nil {
		return pts, nil
	}
	var res landmark.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse landmarks %s: %w", path, err)
	}
	if len(res.Faces) == 0 {
		return nil, fmt.Errorf("no faces in %s", path)
	}
	return res.Primary(), nil
}

func renderStill(o renderOptions) error {
	if _, ok := overlay.Lookup(o.filter); !ok {
		return fmt.Errorf("%w: %q", overlay.ErrUnknownFilter, o.filter)
	}
	now := time.Now()
	if o.at != "" {
		var err error
		now, err = time.Parse(time.RFC3339Nano, o.at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	src, err := imaging.Open(o.image, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	landmarks, err := readLandmarks(o.landmarks)
	if err != nil {
		return err
	}
	if o.mirror {
		landmarks = landmark.Mirror(landmarks)
	}

	b := src.Bounds()
	c := canvas.New()
	c.Resize(b.Dx(), b.Dy())
	c.DrawFrame(src, o.brightness, o.mirror)

	r := overlay.NewRenderer(overlay.Options{Shadows: o.shadows})
	if err := r.Render(c.RGBA(), landmarks, o.filter, o.intensity, now); err != nil {
		return err
	}
	if err := imaging.Save(c.RGBA(), o.out); err != nil {
		return fmt.Errorf("failed to save %s: %w", o.out, err)
	}
	if log != nil {
		log.Infow("rendered still", "filter", o.filter, "out", o.out, "width", b.Dx(), "height", b.Dy())
	}
	return nil
}
