package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"go.viam.com/test"

	"github.com/dudu/mirrorbooth/internal/landmark"
	"github.com/dudu/mirrorbooth/internal/overlay"
)

func TestPrintFilters(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, printFilters(&buf, overlay.CategoryAnimals), test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "Cat Face")
	test.That(t, out, test.ShouldContainSubstring, "Puppy Dog")
	test.That(t, out, test.ShouldNotContainSubstring, "Cool Shades")

	buf.Reset()
	test.That(t, printFilters(&buf, overlay.CategoryAll), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "Star Eyes")
	test.That(t, buf.String(), test.ShouldContainSubstring, "15")

	err := printFilters(&buf, "spooky")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "spooky")
}

// facePoints is a mesh with every point on the nose and the eye corners apart
func facePoints() []landmark.Point {
	pts := make([]landmark.Point, landmark.MeshPoints)
	for i := range pts {
		pts[i] = landmark.Point{X: 0.5, Y: 0.55}
	}
	pts[landmark.LeftEyeOuter] = landmark.Point{X: 0.38, Y: 0.45}
	pts[landmark.RightEyeOuter] = landmark.Point{X: 0.62, Y: 0.45}
	return pts
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, data, 0o644), test.ShouldBeNil)
	return path
}

func TestReadLandmarks(t *testing.T) {
	pts := facePoints()

	bare, err := json.Marshal(pts)
	test.That(t, err, test.ShouldBeNil)
	got, err := readLandmarks(writeFile(t, "bare.json", bare))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, pts)

	wrapped, err := json.Marshal(landmark.Result{Faces: []landmark.Face{{Landmarks: pts}}})
	test.That(t, err, test.ShouldBeNil)
	got, err = readLandmarks(writeFile(t, "result.json", wrapped))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, pts)

	_, err = readLandmarks(writeFile(t, "empty.json", []byte(`{"faces":[]}`)))
	test.That(t, err.Error(), test.ShouldContainSubstring, "no faces")

	_, err = readLandmarks(writeFile(t, "bad.json", []byte(`nope`)))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = readLandmarks(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRenderStill(t *testing.T) {
	dir := t.TempDir()
	frame := imaging.New(320, 240, color.NRGBA{R: 90, G: 100, B: 110, A: 255})
	input := filepath.Join(dir, "in.png")
	test.That(t, imaging.Save(frame, input), test.ShouldBeNil)
	marks, err := json.Marshal(facePoints())
	test.That(t, err, test.ShouldBeNil)
	landmarks := writeFile(t, "face.json", marks)

	opts := renderOptions{
		image:      input,
		landmarks:  landmarks,
		filter:     "glasses",
		intensity:  100,
		brightness: 100,
		out:        filepath.Join(dir, "glasses.png"),
		at:         "2024-01-01T00:00:00Z",
	}
	test.That(t, renderStill(opts), test.ShouldBeNil)
	glasses, err := imaging.Open(opts.out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, glasses.Bounds(), test.ShouldResemble, image.Rect(0, 0, 320, 240))
	test.That(t, changedPixels(frame, glasses), test.ShouldBeGreaterThan, 100)

	opts.filter = overlay.None
	opts.out = filepath.Join(dir, "none.png")
	test.That(t, renderStill(opts), test.ShouldBeNil)
	plain, err := imaging.Open(opts.out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changedPixels(frame, plain), test.ShouldEqual, 0)

	opts.filter = "monocle"
	test.That(t, renderStill(opts), test.ShouldWrap, overlay.ErrUnknownFilter)

	opts.filter = "glasses"
	opts.at = "yesterday"
	test.That(t, renderStill(opts).Error(), test.ShouldContainSubstring, "invalid --at")
}

func changedPixels(a, b image.Image) int {
	n := 0
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, _ := a.At(x, y).RGBA()
			r2, g2, b2, _ := b.At(x, y).RGBA()
			if r1>>8 != r2>>8 || g1>>8 != g2>>8 || b1>>8 != b2>>8 {
				n++
			}
		}
	}
	return n
}
