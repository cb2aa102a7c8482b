package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/dudu/mirrorbooth/internal/landmark"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotConnected is returned when the landmark service cannot be reached.
var ErrNotConnected = errors.New("not connected to landmark service")

// RemoteConfig configures the websocket landmark client.
type RemoteConfig struct {
	URL          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JPEGQuality  int
}

// Remote sends frames to a landmark sidecar over a websocket and reads
// {"faces":[{"landmarks":[{"x":..,"y":..,"z":..}]}]} replies.
type Remote struct {
	cfg    RemoteConfig
	dialer *websocket.Dialer
	logger *zap.SugaredLogger

	mu   sync.Mutex
	conn *websocket.Conn
	buf  bytes.Buffer
}

// NewRemote creates a client; the connection is opened lazily on first Detect.
func NewRemote(cfg RemoteConfig, logger *zap.SugaredLogger) *Remote {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 2 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Second
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = 80
	}
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	return &Remote{cfg: cfg, dialer: &dialer, logger: logger}
}

func (r *Remote) connect(ctx context.Context) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}
	if r.cfg.URL == "" {
		return nil, fmt.Errorf("%w: no URL configured", ErrNotConnected)
	}
	conn, _, err := r.dialer.DialContext(ctx, r.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	r.logger.Infow("connected to landmark service", "url", r.cfg.URL)
	r.conn = conn
	return conn, nil
}

// drop closes a broken connection so the next call redials.
func (r *Remote) drop() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

// Detect implements Detector. Calls are serialized; one frame is in flight at a time.
func (r *Remote) Detect(ctx context.Context, img image.Image) (landmark.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := r.connect(ctx)
	if err != nil {
		return landmark.Result{}, err
	}

	r.buf.Reset()
	if err := imaging.Encode(&r.buf, img, imaging.JPEG, imaging.JPEGQuality(r.cfg.JPEGQuality)); err != nil {
		return landmark.Result{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	writeDeadline := time.Now().Add(r.cfg.WriteTimeout)
	readDeadline := time.Now().Add(r.cfg.ReadTimeout)
	if d, ok := ctx.Deadline(); ok {
		if d.Before(writeDeadline) {
			writeDeadline = d
		}
		if d.Before(readDeadline) {
			readDeadline = d
		}
	}

	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(websocket.BinaryMessage, r.buf.Bytes()); err != nil {
		r.drop()
		return landmark.Result{}, fmt.Errorf("failed to send frame: %w", err)
	}

	conn.SetReadDeadline(readDeadline)
	_, message, err := conn.ReadMessage()
	if err != nil {
		r.drop()
		return landmark.Result{}, fmt.Errorf("failed to read landmarks: %w", err)
	}

	var res landmark.Result
	if err := json.Unmarshal(message, &res); err != nil {
		return landmark.Result{}, fmt.Errorf("failed to decode landmarks: %w", err)
	}
	return res, nil
}

// Close closes the connection, if any.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	err := r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(r.cfg.WriteTimeout))
	r.conn.Close()
	r.conn = nil
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
