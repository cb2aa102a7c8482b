package detector

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/dudu/mirrorbooth/internal/inference"
)

// SCRFD proposes face boxes and 5 keypoints.
type SCRFD struct {
	session        *inference.Session
	inputSize      int
	confThreshold  float32
	nmsThreshold   float32
	featureStrides []int
	numAnchors     int
}

// NewSCRFD creates a new SCRFD detector
func NewSCRFD(modelPath string, inputSize int, confThreshold, nmsThreshold float32) (*SCRFD, error) {
	// 1 input, 3 levels × (score, bbox, kps)
	inputNames := []string{"input.1"}
	outputNames := []string{
		"score_8", "score_16", "score_32",
		"bbox_8", "bbox_16", "bbox_32",
		"kps_8", "kps_16", "kps_32",
	}

	session, err := inference.NewSession(modelPath, inputNames, outputNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create SCRFD session: %w", err)
	}

	return &SCRFD{
		session:        session,
		inputSize:      inputSize,
		confThreshold:  confThreshold,
		nmsThreshold:   nmsThreshold,
		featureStrides: []int{8, 16, 32},
		numAnchors:     2,
	}, nil
}

// Detect returns face proposals for a BGR frame, best first.
func (s *SCRFD) Detect(img gocv.Mat) ([]Box, error) {
	inputBlob, scale := s.preprocess(img)
	defer inputBlob.Close()

	floatData, err := inputBlob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read input blob: %w", err)
	}

	inputTensor, err := inference.CreateTensor([]int64{1, 3, int64(s.inputSize), int64(s.inputSize)}, floatData)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := make([]ort.Value, 9)
	outputTensors := make([]*ort.Tensor[float32], 0, 9)
	defer func() {
		for _, t := range outputTensors {
			t.Destroy()
		}
	}()

	widths := []int64{1, 4, 10}
	for kind, width := range widths {
		for level, stride := range s.featureStrides {
			side := s.inputSize / stride
			anchors := int64(side * side * s.numAnchors)
			t, err := inference.CreateEmptyTensor[float32]([]int64{anchors, width})
			if err != nil {
				return nil, fmt.Errorf("failed to create output tensor: %w", err)
			}
			outputs[kind*3+level] = t
			outputTensors = append(outputTensors, t)
		}
	}

	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	boxes := s.postprocess(outputTensors, scale, img.Cols(), img.Rows())
	return nms(boxes, s.nmsThreshold), nil
}

// preprocess letterboxes the frame into the square input and normalizes it.
func (s *SCRFD) preprocess(img gocv.Mat) (gocv.Mat, float32) {
	scale := float32(s.inputSize) / float32(max(img.Rows(), img.Cols()))
	newWidth := int(float32(img.Cols()) * scale)
	newHeight := int(float32(img.Rows()) * scale)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(newWidth, newHeight), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), s.inputSize, s.inputSize, gocv.MatTypeCV8UC3)
	defer padded.Close()
	roi := padded.Region(image.Rect(0, 0, newWidth, newHeight))
	resized.CopyTo(&roi)
	roi.Close()

	// (x - 127.5) / 128, BGR -> RGB, HWC -> NCHW
	blob := gocv.BlobFromImage(padded, 1.0/128.0, image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	return blob, scale
}

// postprocess decodes distance-to-edge boxes and keypoints from each stride level.
func (s *SCRFD) postprocess(outputs []*ort.Tensor[float32], scale float32, origWidth, origHeight int) []Box {
	var boxes []Box

	for level, stride := range s.featureStrides {
		side := s.inputSize / stride
		fs := float32(stride)

		scoreData := outputs[level].GetData()
		bboxData := outputs[level+3].GetData()
		kpsData := outputs[level+6].GetData()

		anchorIdx := 0
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				for a := 0; a < s.numAnchors; a++ {
					score := scoreData[anchorIdx]
					if score > s.confThreshold {
						cx := float32(x) * fs
						cy := float32(y) * fs

						b := bboxData[anchorIdx*4:]
						box := BoundingBox{
							X1: clamp((cx-b[0]*fs)/scale, 0, float32(origWidth)),
							Y1: clamp((cy-b[1]*fs)/scale, 0, float32(origHeight)),
							X2: clamp((cx+b[2]*fs)/scale, 0, float32(origWidth)),
							Y2: clamp((cy+b[3]*fs)/scale, 0, float32(origHeight)),
						}

						k := kpsData[anchorIdx*10:]
						kp := func(i int) Keypoint {
							return Keypoint{X: (cx + k[i*2]*fs) / scale, Y: (cy + k[i*2+1]*fs) / scale}
						}

						boxes = append(boxes, Box{
							BoundingBox: box,
							Keypoints: Keypoints{
								LeftEye:    kp(0),
								RightEye:   kp(1),
								Nose:       kp(2),
								LeftMouth:  kp(3),
								RightMouth: kp(4),
							},
							Score: score,
						})
					}
					anchorIdx++
				}
			}
		}
	}

	return boxes
}

// Close releases detector resources
func (s *SCRFD) Close() error {
	return s.session.Destroy()
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
