package api

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/dudu/mirrorbooth/internal/overlay"
	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
)

type fakeStatus struct{ status pipeline.Status }

func (f *fakeStatus) Status() pipeline.Status { return f.status }

type fakeIdle bool

func (f fakeIdle) Idle() bool { return bool(f) }

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *settings.Store, *clock.Mock) {
	t.Helper()
	store, err := settings.NewStore(settings.Default())
	test.That(t, err, test.ShouldBeNil)
	clk := clock.NewMock()
	status := &fakeStatus{status: pipeline.Status{State: pipeline.Detecting, FaceDetected: true, FPS: 29.5, Width: 640, Height: 480}}
	base := []ServerOption{
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithSettings(store),
		WithStatus(status),
		WithIdle(fakeIdle(false)),
		WithClock(clk),
	}
	srv, err := NewServer(append(base, opts...)...)
	test.That(t, err, test.ShouldBeNil)
	return srv, store, clk
}

func do(t *testing.T, srv *Server, method, path, body string) (int, []byte, http.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	return resp.StatusCode, data, resp.Header
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer()
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewServer(WithLogger(zaptest.NewLogger(t).Sugar()))
	test.That(t, err.Error(), test.ShouldContainSubstring, "settings store")
	_, err = NewServer(WithRateLimit(-1, 0))
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid rate limit")
}

func TestFilters(t *testing.T) {
	srv, _, _ := newTestServer(t)

	code, body, hdr := do(t, srv, http.MethodGet, "/api/v1/filters", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	test.That(t, hdr.Get(RequestIDKey), test.ShouldHaveLength, 26)
	var all []overlay.Definition
	test.That(t, json.Unmarshal(body, &all), test.ShouldBeNil)
	test.That(t, all, test.ShouldResemble, overlay.Catalog())

	code, body, _ = do(t, srv, http.MethodGet, "/api/v1/filters?category=animals", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var animals []overlay.Definition
	test.That(t, json.Unmarshal(body, &animals), test.ShouldBeNil)
	test.That(t, animals, test.ShouldHaveLength, 2)
	test.That(t, animals[0].ID, test.ShouldEqual, "cat")

	code, body, _ = do(t, srv, http.MethodGet, "/api/v1/filters?category=spooky", "")
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	test.That(t, string(body), test.ShouldContainSubstring, `unknown category \"spooky\"`)

	code, body, _ = do(t, srv, http.MethodGet, "/api/v1/categories", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var cats []overlay.CategoryLabel
	test.That(t, json.Unmarshal(body, &cats), test.ShouldBeNil)
	test.That(t, cats[0].ID, test.ShouldEqual, overlay.CategoryAll)
}

func TestSettingsRoutes(t *testing.T) {
	srv, store, _ := newTestServer(t)

	code, body, _ := do(t, srv, http.MethodGet, "/api/v1/settings", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var got settings.Settings
	test.That(t, json.Unmarshal(body, &got), test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, settings.Default())
	test.That(t, string(body), test.ShouldContainSubstring, `"filterId":"glasses"`)

	next := settings.Default()
	next.FilterID = "vampire"
	next.Brightness = 120
	next.AutoRotate = false
	payload, err := json.Marshal(next)
	test.That(t, err, test.ShouldBeNil)
	code, _, _ = do(t, srv, http.MethodPut, "/api/v1/settings", string(payload))
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	test.That(t, store.Get(), test.ShouldResemble, next)

	next.Brightness = 200
	payload, err = json.Marshal(next)
	test.That(t, err, test.ShouldBeNil)
	code, body, _ = do(t, srv, http.MethodPut, "/api/v1/settings", string(payload))
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	test.That(t, string(body), test.ShouldContainSubstring, "brightness: must be at most 150")
	test.That(t, store.Render().Brightness, test.ShouldEqual, 120)

	code, _, _ = do(t, srv, http.MethodPut, "/api/v1/settings", "{not json")
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
}

func TestSelectFilterRoute(t *testing.T) {
	srv, store, _ := newTestServer(t)

	code, body, _ := do(t, srv, http.MethodPut, "/api/v1/settings/filter", `{"filterId":"alien"}`)
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	test.That(t, string(body), test.ShouldContainSubstring, `"filterId":"alien"`)
	test.That(t, store.Render().FilterID, test.ShouldEqual, "alien")

	code, body, _ = do(t, srv, http.MethodPut, "/api/v1/settings/filter", `{"filterId":"monocle"}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	test.That(t, string(body), test.ShouldContainSubstring, "unknown filter")
	test.That(t, store.Render().FilterID, test.ShouldEqual, "alien")

	code, body, _ = do(t, srv, http.MethodPut, "/api/v1/settings/filter", `{}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	test.That(t, string(body), test.ShouldContainSubstring, "filterId is required")
}

func TestStatusRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)
	code, body, _ := do(t, srv, http.MethodGet, "/api/v1/status", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	for _, want := range []string{`"state":"detecting"`, `"faceDetected":true`, `"fps":29.5`, `"idle":false`, `"filterId":"glasses"`} {
		test.That(t, string(body), test.ShouldContainSubstring, want)
	}

	code, _, _ = do(t, srv, http.MethodGet, "/api/v1/status/ws", "")
	test.That(t, code, test.ShouldEqual, http.StatusUpgradeRequired)

	code, _, _ = do(t, srv, http.MethodGet, "/api/v1/nope", "")
	test.That(t, code, test.ShouldEqual, http.StatusNotFound)
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "booth-1")
	resp, err := srv.App().Test(req, -1)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.Header.Get(RequestIDKey), test.ShouldEqual, "booth-1")
}

func TestRateLimit(t *testing.T) {
	srv, _, _ := newTestServer(t, WithRateLimit(0.001, 2))
	for i := 0; i < 2; i++ {
		code, _, _ := do(t, srv, http.MethodGet, "/api/v1/categories", "")
		test.That(t, code, test.ShouldEqual, http.StatusOK)
	}
	code, body, _ := do(t, srv, http.MethodGet, "/api/v1/categories", "")
	test.That(t, code, test.ShouldEqual, http.StatusTooManyRequests)
	test.That(t, string(body), test.ShouldEqual, `{"error":"too many requests"}`)
}

func TestRateLimiterStaysBounded(t *testing.T) {
	clk := clock.NewMock()
	r := newRateLimiter(clk, 1, 1)
	r.maxClients = 4

	first := r.limiterFor("10.0.0.1")
	test.That(t, r.limiterFor("10.0.0.1") == first, test.ShouldBeTrue)
	for _, ip := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		r.limiterFor(ip)
	}
	test.That(t, r.bucket, test.ShouldHaveLength, 4)

	// full: the least recently seen client makes room
	clk.Add(time.Minute)
	r.limiterFor("10.0.0.1")
	r.limiterFor("10.0.0.5")
	test.That(t, r.bucket, test.ShouldHaveLength, 4)
	test.That(t, r.bucket, test.ShouldContainKey, "10.0.0.1")
	test.That(t, r.bucket, test.ShouldContainKey, "10.0.0.5")

	for i := 0; i < 100; i++ {
		clk.Add(time.Second)
		r.limiterFor(fmt.Sprintf("10.1.0.%d", i))
		test.That(t, len(r.bucket), test.ShouldBeLessThanOrEqualTo, 4)
	}

	// idle clients are swept once the idle window passes
	clk.Add(limiterIdle)
	r.limiterFor("10.0.0.9")
	test.That(t, r.bucket, test.ShouldHaveLength, 1)
	test.That(t, r.bucket, test.ShouldContainKey, "10.0.0.9")
}

func TestRateLimitUsesServerClock(t *testing.T) {
	clk := clock.NewMock()
	srv, _, _ := newTestServer(t, WithRateLimit(1, 1), WithClock(clk))
	test.That(t, srv.limiter, test.ShouldNotBeNil)
	test.That(t, srv.limiter.clock == clock.Clock(clk), test.ShouldBeTrue)
}

func TestStatusStream(t *testing.T) {
	srv, store, clk := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()
	defer func() {
		cancel()
		test.That(t, <-served, test.ShouldBeNil)
	}()

	url := "ws://" + ln.Addr().String() + "/api/v1/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()

	read := func() statusResponse {
		t.Helper()
		test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
		_, data, err := conn.ReadMessage()
		test.That(t, err, test.ShouldBeNil)
		var msg statusResponse
		test.That(t, json.Unmarshal(data, &msg), test.ShouldBeNil)
		return msg
	}

	first := read()
	test.That(t, first.FilterID, test.ShouldEqual, "glasses")
	test.That(t, first.FaceDetected, test.ShouldBeTrue)

	// settings changes are pushed immediately
	_, err = store.SelectFilter("crown")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read().FilterID, test.ShouldEqual, "crown")

	// and the ticker keeps the stream alive
	clk.Add(StatusInterval)
	test.That(t, read().FilterID, test.ShouldEqual, "crown")
}
