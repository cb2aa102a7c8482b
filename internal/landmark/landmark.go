// Package landmark holds the face-mesh data model shared by the detectors,
// the frame loop and the overlay renderer. It has no native dependencies.
package landmark

// Face-mesh landmark indices consumed by the overlay renderer. The full
// topology has MeshPoints entries; only the anchors below carry meaning here.
const (
	UpperLip           = 0
	NoseTip            = 1
	NoseBottom         = 2
	NoseBridge         = 6
	ForeheadTop        = 10
	InnerLip           = 13
	LeftEyeOuter       = 33
	LeftCheek          = 50
	LeftTemple         = 54
	MouthLeft          = 61
	LeftEyeInner       = 133
	LeftEyeLower       = 145
	LeftEyeUpper       = 159
	RightEyeUpperOuter = 257
	RightEyeOuter      = 263
	RightCheek         = 280
	RightTemple        = 284
	MouthRight         = 291
	RightEyeInner      = 362
	RightEyeLower      = 374
	RightEyeUpper      = 386

	MeshPoints = 468
)

// Point is a landmark normalized to frame width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Face is one detected face.
type Face struct {
	Landmarks []Point `json:"landmarks"`
	Score     float32 `json:"score,omitempty"`
}

// Result is the output of one detection call.
type Result struct {
	Faces []Face `json:"faces"`
}

// Primary returns the landmarks of the first face, or nil.
func (r Result) Primary() []Point {
	if len(r.Faces) == 0 {
		return nil
	}
	return r.Faces[0].Landmarks
}

// Mirror returns a copy of pts with x flipped (x' = 1 - x) for a self-view feed.
func Mirror(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: 1 - p.X, Y: p.Y, Z: p.Z}
	}
	return out
}
