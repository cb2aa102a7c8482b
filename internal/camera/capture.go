package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Options selects and configures the capture device.
type Options struct {
	// Device is the camera index, used when File is empty
	Device int
	// File plays a video file, rewinding at the end
	File   string
	Width  int
	Height int
	FPS    int
}

// capture reads frames from an OpenCV video capture
type capture struct {
	mu     sync.Mutex
	webcam *gocv.VideoCapture
	frame  gocv.Mat
	file   bool
	fps    float64
	width  int
	height int
}

func openCapture(opts Options) (*capture, error) {
	var (
		webcam *gocv.VideoCapture
		err    error
	)
	if opts.File != "" {
		webcam, err = gocv.OpenVideoCapture(opts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open video %s: %w", opts.File, err)
		}
	} else {
		webcam, err = gocv.OpenVideoCapture(opts.Device)
		if err != nil {
			return nil, fmt.Errorf("failed to open camera %d: %w", opts.Device, err)
		}
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
		webcam.Set(gocv.VideoCaptureFPS, float64(opts.FPS))
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, errors.New("video capture did not open")
	}

	// the device may not support the requested size
	c := &capture{
		webcam: webcam,
		frame:  gocv.NewMat(),
		file:   opts.File != "",
		fps:    webcam.Get(gocv.VideoCaptureFPS),
		width:  int(webcam.Get(gocv.VideoCaptureFrameWidth)),
		height: int(webcam.Get(gocv.VideoCaptureFrameHeight)),
	}
	if c.fps <= 0 {
		c.fps = float64(opts.FPS)
	}
	return c, nil
}

// Grab decodes the next frame. A file rewinds once at its end.
func (c *capture) Grab() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil, errClosed
	}
	if !c.webcam.Read(&c.frame) || c.frame.Empty() {
		if !c.file {
			return nil, errNoFrame
		}
		c.webcam.Set(gocv.VideoCapturePosFrames, 0)
		if !c.webcam.Read(&c.frame) || c.frame.Empty() {
			return nil, errNoFrame
		}
	}
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

// Interval is the file frame period, or zero for a live device.
func (c *capture) Interval() float64 {
	if !c.file || c.fps <= 0 {
		return 0
	}
	return 1 / c.fps
}

func (c *capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil
	}
	err := c.webcam.Close()
	c.frame.Close()
	c.webcam = nil
	return err
}
