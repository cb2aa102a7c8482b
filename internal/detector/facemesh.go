package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/dudu/mirrorbooth/internal/inference"
	"github.com/dudu/mirrorbooth/internal/landmark"
)

// FaceMeshConfig holds the model paths and thresholds for FaceMesh.
type FaceMeshConfig struct {
	DetectorModel  string
	MeshModel      string
	DetectionSize  int
	ConfThreshold  float32
	NMSThreshold   float32
	PresenceThresh float32
	MaxFaces       int
	// Tensor names of the mesh model; defaults match the exported face_landmark model.
	MeshInput    string
	MeshOutput   string
	PresenceName string
}

func (c *FaceMeshConfig) setDefaults() {
	if c.DetectionSize == 0 {
		c.DetectionSize = 640
	}
	if c.ConfThreshold == 0 {
		c.ConfThreshold = 0.5
	}
	if c.NMSThreshold == 0 {
		c.NMSThreshold = 0.4
	}
	if c.PresenceThresh == 0 {
		c.PresenceThresh = 0.5
	}
	if c.MaxFaces == 0 {
		c.MaxFaces = 1
	}
	if c.MeshInput == "" {
		c.MeshInput = "input_1"
	}
	if c.MeshOutput == "" {
		c.MeshOutput = "conv2d_21"
	}
	if c.PresenceName == "" {
		c.PresenceName = "conv2d_31"
	}
}

const (
	meshInputSize = 192
	cropExpand    = 1.5
)

// FaceMesh runs SCRFD for boxes and a 468-point mesh model on an aligned crop.
type FaceMesh struct {
	boxes     *SCRFD
	mesh      *inference.Session
	presence  float32
	maxFaces  int
	inputSize int
}

// NewFaceMesh loads both models. inference.Initialize must have been called.
func NewFaceMesh(cfg FaceMeshConfig) (*FaceMesh, error) {
	cfg.setDefaults()

	boxes, err := NewSCRFD(cfg.DetectorModel, cfg.DetectionSize, cfg.ConfThreshold, cfg.NMSThreshold)
	if err != nil {
		return nil, err
	}

	mesh, err := inference.NewSession(cfg.MeshModel, []string{cfg.MeshInput}, []string{cfg.MeshOutput, cfg.PresenceName})
	if err != nil {
		boxes.Close()
		return nil, fmt.Errorf("failed to create mesh session: %w", err)
	}

	return &FaceMesh{
		boxes:     boxes,
		mesh:      mesh,
		presence:  cfg.PresenceThresh,
		maxFaces:  cfg.MaxFaces,
		inputSize: meshInputSize,
	}, nil
}

// Detect implements Detector. The model call is not interruptible; ctx is checked between faces.
func (m *FaceMesh) Detect(ctx context.Context, img image.Image) (landmark.Result, error) {
	b := img.Bounds()
	if b.Empty() {
		return landmark.Result{}, errors.New("empty frame")
	}

	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return landmark.Result{}, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer frame.Close()

	boxes, err := m.boxes.Detect(frame)
	if err != nil {
		return landmark.Result{}, fmt.Errorf("box detection failed: %w", err)
	}

	var res landmark.Result
	for _, box := range boxes {
		if len(res.Faces) >= m.maxFaces {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		face, ok, err := m.landmarks(frame, box)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}
		face.Landmarks = normalize(face.Landmarks, float64(b.Dx()), float64(b.Dy()))
		res.Faces = append(res.Faces, face)
	}
	return res, nil
}

// landmarks runs the mesh model on the rotation-aligned crop around box.
func (m *FaceMesh) landmarks(frame gocv.Mat, box Box) (landmark.Face, bool, error) {
	crop := cropForBox(box, m.inputSize)

	M := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer M.Close()
	for r, row := range crop.forwardMatrix() {
		for c, v := range row {
			M.SetDoubleAt(r, c, v)
		}
	}

	aligned := gocv.NewMat()
	defer aligned.Close()
	gocv.WarpAffine(frame, &aligned, M, image.Pt(m.inputSize, m.inputSize))

	// NHWC, RGB in [0, 1]
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(aligned, &rgb, gocv.ColorBGRToRGB)
	floatMat := gocv.NewMat()
	defer floatMat.Close()
	rgb.ConvertToWithParams(&floatMat, gocv.MatTypeCV32FC3, 1.0/255.0, 0)

	data, err := floatMat.DataPtrFloat32()
	if err != nil {
		return landmark.Face{}, false, fmt.Errorf("failed to read crop: %w", err)
	}
	input, err := inference.CreateTensor([]int64{1, int64(m.inputSize), int64(m.inputSize), 3}, data)
	if err != nil {
		return landmark.Face{}, false, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	points, err := inference.CreateEmptyTensor[float32]([]int64{1, 1, 1, landmark.MeshPoints * 3})
	if err != nil {
		return landmark.Face{}, false, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer points.Destroy()
	flag, err := inference.CreateEmptyTensor[float32]([]int64{1, 1, 1, 1})
	if err != nil {
		return landmark.Face{}, false, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer flag.Destroy()

	if err := m.mesh.Run([]ort.Value{input}, []ort.Value{points, flag}); err != nil {
		return landmark.Face{}, false, fmt.Errorf("mesh inference failed: %w", err)
	}

	score := float32(1 / (1 + math.Exp(-float64(flag.GetData()[0]))))
	if score < m.presence {
		return landmark.Face{}, false, nil
	}

	return landmark.Face{Landmarks: crop.project(points.GetData()), Score: score}, true, nil
}

// Close releases both sessions.
func (m *FaceMesh) Close() error {
	return multierr.Combine(m.boxes.Close(), m.mesh.Destroy())
}

// cropTransform maps source pixels into a square, rotated model crop.
type cropTransform struct {
	cx, cy float64 // crop centre in source pixels
	side   float64 // crop side in source pixels
	angle  float64 // eye-line angle in radians
	size   float64 // model input side
}

// cropForBox centres a 1.5x crop on the box and levels the eye line.
func cropForBox(box Box, size int) cropTransform {
	c := box.BoundingBox.Center()
	kp := box.Keypoints
	return cropTransform{
		cx:    float64(c.X),
		cy:    float64(c.Y),
		side:  float64(max(box.BoundingBox.Width(), box.BoundingBox.Height())) * cropExpand,
		angle: math.Atan2(float64(kp.RightEye.Y-kp.LeftEye.Y), float64(kp.RightEye.X-kp.LeftEye.X)),
		size:  float64(size),
	}
}

func (t cropTransform) scale() float64 {
	if t.side == 0 {
		return 0
	}
	return t.size / t.side
}

// forwardMatrix is the 2x3 affine matrix taking source pixels to crop pixels.
func (t cropTransform) forwardMatrix() [2][3]float64 {
	s := t.scale()
	cos, sin := math.Cos(-t.angle)*s, math.Sin(-t.angle)*s
	half := t.size / 2
	return [2][3]float64{
		{cos, -sin, half - cos*t.cx + sin*t.cy},
		{sin, cos, half - sin*t.cx - cos*t.cy},
	}
}

// Forward maps a source pixel into crop space.
func (t cropTransform) Forward(x, y float64) (float64, float64) {
	m := t.forwardMatrix()
	return m[0][0]*x + m[0][1]*y + m[0][2], m[1][0]*x + m[1][1]*y + m[1][2]
}

// Inverse maps a crop pixel back into source space.
func (t cropTransform) Inverse(u, v float64) (float64, float64) {
	s := t.scale()
	if s == 0 {
		return t.cx, t.cy
	}
	du, dv := (u-t.size/2)/s, (v-t.size/2)/s
	cos, sin := math.Cos(t.angle), math.Sin(t.angle)
	return t.cx + cos*du - sin*dv, t.cy + sin*du + cos*dv
}

// project converts flat crop-space (x, y, z) triples into source pixels.
func (t cropTransform) project(raw []float32) []landmark.Point {
	n := len(raw) / 3
	pts := make([]landmark.Point, n)
	s := t.scale()
	for i := range pts {
		x, y := t.Inverse(float64(raw[i*3]), float64(raw[i*3+1]))
		z := 0.0
		if s != 0 {
			z = float64(raw[i*3+2]) / s
		}
		pts[i] = landmark.Point{X: x, Y: y, Z: z}
	}
	return pts
}

// normalize divides pixel landmarks by the frame size; z is scaled by width.
func normalize(pts []landmark.Point, w, h float64) []landmark.Point {
	for i := range pts {
		pts[i].X /= w
		pts[i].Y /= h
		pts[i].Z /= w
	}
	return pts
}
