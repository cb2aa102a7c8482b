package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/dudu/mirrorbooth/internal/api"
	"github.com/dudu/mirrorbooth/internal/camera"
	"github.com/dudu/mirrorbooth/internal/config"
	"github.com/dudu/mirrorbooth/internal/detector"
	"github.com/dudu/mirrorbooth/internal/inference"
	"github.com/dudu/mirrorbooth/internal/kiosk"
	"github.com/dudu/mirrorbooth/internal/overlay"
	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
	"github.com/dudu/mirrorbooth/internal/ui"
)

var runOpts struct {
	camera   int
	video    string
	filter   string
	noAPI    bool
	headless bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the camera and run the mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("camera") {
			cfg.Camera.Device = runOpts.camera
		}
		if runOpts.video != "" {
			cfg.Camera.File = runOpts.video
		}
		if runOpts.filter != "" {
			cfg.Settings.FilterID = runOpts.filter
		}
		if runOpts.noAPI {
			cfg.API.Enabled = false
		}
		if runOpts.headless {
			cfg.Display.Window = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runBooth(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().IntVar(&runOpts.camera, "camera", 0, "camera device index")
	runCmd.Flags().StringVar(&runOpts.video, "video", "", "play a video file in a loop instead of the camera")
	runCmd.Flags().StringVarP(&runOpts.filter, "filter", "f", "", "initial filter id")
	runCmd.Flags().BoolVar(&runOpts.noAPI, "no-api", false, "do not start the control API")
	runCmd.Flags().BoolVar(&runOpts.headless, "headless", false, "run without a preview window")
	rootCmd.AddCommand(runCmd)
}

// headless discards frames when no window is shown
type headless struct{}

func (headless) Present(*image.RGBA, pipeline.Status) error { return nil }

func openDetector(c config.Detector) (pipeline.FaceDetector, error) {
	switch c.Kind {
	case config.DetectorRemote:
		return detector.NewRemote(detector.RemoteConfig{URL: c.RemoteURL}, log.Named("detector")), nil
	default:
		if err := inference.Initialize(inference.Options{LibraryPath: c.ORTLibrary, CoreML: c.CoreML}, log.Named("onnx")); err != nil {
			return nil, err
		}
		return detector.NewFaceMesh(detector.FaceMeshConfig{
			DetectorModel:  c.FaceModel,
			MeshModel:      c.MeshModel,
			DetectionSize:  c.DetectionSize,
			ConfThreshold:  c.Confidence,
			NMSThreshold:   c.NMS,
			PresenceThresh: c.Presence,
		})
	}
}

func closeAll(closers ...any) error {
	var err error
	for _, c := range closers {
		if closer, ok := c.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

func runBooth(parent context.Context, cfg config.Config) (err error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer func() { err = multierr.Append(err, inference.Shutdown()) }()

	clk := clock.New()
	store, err := settings.NewStore(cfg.Settings)
	if err != nil {
		return err
	}

	log.Infow("starting mirrorbooth", "version", Version, "detector", cfg.Detector.Kind, "filter", cfg.Settings.FilterID)
	det, err := openDetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}

	src, err := camera.Open(camera.Options{
		Device: cfg.Camera.Device,
		File:   cfg.Camera.File,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	}, clk, log.Named("camera"))
	if err != nil {
		return multierr.Append(fmt.Errorf("failed to open video source: %w", err), closeAll(det))
	}

	var presenter pipeline.Presenter = headless{}
	if cfg.Display.Window {
		win, err := ui.NewWindow(cfg.Display.Title, cfg.Camera.Width, cfg.Camera.Height, store, log.Named("ui"))
		if err != nil {
			return multierr.Append(err, closeAll(det, src))
		}
		presenter = win
		go func() {
			select {
			case <-win.Done():
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	loop, err := pipeline.New(pipeline.Config{
		RefreshRate: cfg.Display.RefreshRate,
		Mirror:      cfg.Display.Mirror,
		Clock:       clk,
	}, pipeline.Components{
		Source:    src,
		Detector:  det,
		Renderer:  overlay.NewRenderer(overlay.Options{Shadows: cfg.Display.Shadows}),
		Presenter: presenter,
		Settings:  store,
	}, log.Named("pipeline"))
	if err != nil {
		return multierr.Append(err, closeAll(presenter, det, src))
	}
	defer func() { err = multierr.Append(err, loop.Close()) }()

	director := kiosk.New(store, loop, clk, log.Named("kiosk"))

	var server *api.Server
	if cfg.API.Enabled {
		server, err = api.NewServer(
			api.WithLogger(log.Named("api")),
			api.WithSettings(store),
			api.WithStatus(loop),
			api.WithIdle(director),
			api.WithClock(clk),
			api.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		)
		if err != nil {
			return err
		}
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		bgErr error
	)
	background := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Errorw("background task failed", "task", name, "error", err)
				mu.Lock()
				bgErr = multierr.Append(bgErr, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	background("kiosk", director.Run)

	if server != nil {
		background("api", func(ctx context.Context) error {
			return server.ListenAndServe(ctx, cfg.API.Addr)
		})
	}

	watcher, err := config.NewWatcher(configPath, clk, log.Named("config"))
	if err != nil {
		log.Warnw("config reload disabled", "error", err)
	} else {
		background("config", func(ctx context.Context) error {
			return watcher.Run(ctx, func(next config.Config) error {
				_, err := store.Replace(next.Settings)
				return err
			})
		})
	}

	// the loop owns the main goroutine: the window must be driven from it
	err = loop.Run(ctx)
	cancel()
	wg.Wait()
	log.Info("mirrorbooth stopped")
	return multierr.Combine(err, bgErr)
}
