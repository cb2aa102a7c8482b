package detector

import (
	"context"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

func TestNMS(t *testing.T) {
	boxes := []Box{
		{BoundingBox: BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, Score: 0.6},
		{BoundingBox: BoundingBox{X1: 1, Y1: 1, X2: 11, Y2: 11}, Score: 0.9},
		{BoundingBox: BoundingBox{X1: 50, Y1: 50, X2: 60, Y2: 60}, Score: 0.7},
	}
	kept := nms(boxes, 0.4)
	test.That(t, kept, test.ShouldHaveLength, 2)
	test.That(t, kept[0].Score, test.ShouldEqual, float32(0.9))
	test.That(t, kept[1].Score, test.ShouldEqual, float32(0.7))

	test.That(t, iou(BoundingBox{X2: 1, Y2: 1}, BoundingBox{X1: 2, Y1: 2, X2: 3, Y2: 3}), test.ShouldEqual, float32(0))
}

func TestCropTransformRoundTrip(t *testing.T) {
	box := Box{
		BoundingBox: BoundingBox{X1: 100, Y1: 80, X2: 300, Y2: 320},
		Keypoints: Keypoints{
			LeftEye:  Keypoint{X: 150, Y: 150},
			RightEye: Keypoint{X: 250, Y: 190},
		},
	}
	crop := cropForBox(box, 192)
	test.That(t, crop.side, test.ShouldAlmostEqual, 360.0)
	test.That(t, crop.angle, test.ShouldAlmostEqual, math.Atan2(40, 100))

	// box centre lands in the middle of the crop
	u, v := crop.Forward(200, 200)
	test.That(t, u, test.ShouldAlmostEqual, 96.0, 1e-9)
	test.That(t, v, test.ShouldAlmostEqual, 96.0, 1e-9)

	for _, p := range [][2]float64{{0, 0}, {150, 150}, {250, 190}, {640, 480}} {
		u, v := crop.Forward(p[0], p[1])
		x, y := crop.Inverse(u, v)
		test.That(t, x, test.ShouldAlmostEqual, p[0], 1e-6)
		test.That(t, y, test.ShouldAlmostEqual, p[1], 1e-6)
	}

	// the eye line is horizontal in crop space
	_, ly := crop.Forward(150, 150)
	_, ry := crop.Forward(250, 190)
	test.That(t, ly, test.ShouldAlmostEqual, ry, 1e-9)
}

func TestCropTransformProject(t *testing.T) {
	crop := cropTransform{cx: 320, cy: 240, side: 384, size: 192}
	pts := crop.project([]float32{96, 96, 10, 0, 0, 0})
	test.That(t, pts, test.ShouldHaveLength, 2)
	test.That(t, pts[0].X, test.ShouldAlmostEqual, 320.0)
	test.That(t, pts[0].Y, test.ShouldAlmostEqual, 240.0)
	test.That(t, pts[0].Z, test.ShouldAlmostEqual, 20.0)
	test.That(t, pts[1].X, test.ShouldAlmostEqual, 128.0)
	test.That(t, pts[1].Y, test.ShouldAlmostEqual, 48.0)

	norm := normalize(pts, 640, 480)
	test.That(t, norm[0].X, test.ShouldAlmostEqual, 0.5)
	test.That(t, norm[0].Y, test.ShouldAlmostEqual, 0.5)

	degenerate := cropTransform{cx: 5, cy: 6, size: 192}
	x, y := degenerate.Inverse(10, 10)
	test.That(t, x, test.ShouldEqual, 5.0)
	test.That(t, y, test.ShouldEqual, 6.0)
}

func landmarkServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				return
			}
			if _, err := imaging.Decode(strings.NewReader(string(msg))); err != nil {
				conn.WriteMessage(websocket.TextMessage, []byte(`{"faces":[]}`))
				continue
			}
			conn.WriteMessage(websocket.TextMessage, []byte(reply))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteDetect(t *testing.T) {
	srv := landmarkServer(t, `{"faces":[{"landmarks":[{"x":0.4,"y":0.5,"z":0.01},{"x":0.6,"y":0.5,"z":0}]}]}`)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	r := NewRemote(RemoteConfig{URL: url}, zap.NewNop().Sugar())
	defer r.Close()

	frame := imaging.New(64, 48, color.NRGBA{R: 200, A: 255})
	for i := 0; i < 2; i++ {
		res, err := r.Detect(context.Background(), frame)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Faces, test.ShouldHaveLength, 1)
		test.That(t, res.Primary(), test.ShouldResemble, []landmark.Point{{X: 0.4, Y: 0.5, Z: 0.01}, {X: 0.6, Y: 0.5}})
	}
}

func TestRemoteBadReply(t *testing.T) {
	srv := landmarkServer(t, `not json`)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	r := NewRemote(RemoteConfig{URL: url}, zap.NewNop().Sugar())
	defer r.Close()

	_, err := r.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "decode")
}

func TestRemoteUnreachable(t *testing.T) {
	r := NewRemote(RemoteConfig{}, zap.NewNop().Sugar())
	_, err := r.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	test.That(t, err, test.ShouldWrap, ErrNotConnected)
	test.That(t, r.Close(), test.ShouldBeNil)
}
