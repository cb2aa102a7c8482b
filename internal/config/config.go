// Package config loads the booth configuration from a JSON file, a .env file
// and MIRRORBOOTH_* environment variables, in that order of precedence from
// lowest to highest.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"

	"github.com/dudu/mirrorbooth/internal/logger"
	"github.com/dudu/mirrorbooth/internal/settings"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultPath is where the booth looks for its config file.
const DefaultPath = "mirrorbooth.json"

// Detector kinds
const (
	DetectorFaceMesh = "facemesh"
	DetectorRemote   = "remote"
)

// Camera selects the video source.
type Camera struct {
	// Device is the capture device index, used when File is empty
	Device int `json:"device" validate:"gte=0"`
	// File plays a video file in a loop instead of a live camera
	File   string `json:"file"`
	Width  int    `json:"width" validate:"gt=0"`
	Height int    `json:"height" validate:"gt=0"`
	FPS    int    `json:"fps" validate:"gt=0"`
}

// Detector selects and configures the landmark detector.
type Detector struct {
	Kind          string  `json:"kind" validate:"oneof=facemesh remote"`
	FaceModel     string  `json:"faceModel" validate:"required_if=Kind facemesh"`
	MeshModel     string  `json:"meshModel" validate:"required_if=Kind facemesh"`
	DetectionSize int     `json:"detectionSize" validate:"gt=0"`
	Confidence    float32 `json:"confidence" validate:"gt=0,lte=1"`
	NMS           float32 `json:"nms" validate:"gt=0,lte=1"`
	Presence      float32 `json:"presence" validate:"gte=0,lte=1"`
	ORTLibrary    string  `json:"ortLibrary"`
	CoreML        bool    `json:"coreml"`
	RemoteURL     string  `json:"remoteURL" validate:"required_if=Kind remote,omitempty,url"`
}

// Display configures the preview window and the overlay.
type Display struct {
	Window      bool    `json:"window"`
	Title       string  `json:"title"`
	RefreshRate float64 `json:"refreshRate" validate:"gt=0,lte=240"`
	Mirror      bool    `json:"mirror"`
	Shadows     bool    `json:"shadows"`
}

// API configures the local control server.
type API struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr" validate:"required_if=Enabled true"`
	// RateLimit is requests per second per client IP; zero disables limiting
	RateLimit float64 `json:"rateLimit" validate:"gte=0"`
	Burst     int     `json:"burst" validate:"gte=0"`
}

// Config is the whole booth configuration.
type Config struct {
	Camera   Camera            `json:"camera"`
	Detector Detector          `json:"detector"`
	Display  Display           `json:"display"`
	API      API               `json:"api"`
	Log      logger.Config     `json:"log"`
	Settings settings.Settings `json:"settings"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Camera: Camera{Width: 1280, Height: 720, FPS: 30},
		Detector: Detector{
			Kind:          DetectorFaceMesh,
			FaceModel:     "models/det_10g.onnx",
			MeshModel:     "models/face_mesh.onnx",
			DetectionSize: 640,
			Confidence:    0.5,
			NMS:           0.4,
			Presence:      0.5,
		},
		Display:  Display{Window: true, Title: "MirrorBooth", RefreshRate: 60, Mirror: true, Shadows: true},
		API:      API{Enabled: true, Addr: "127.0.0.1:8420", RateLimit: 20, Burst: 40},
		Log:      logger.Config{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7},
		Settings: settings.Default(),
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables already set. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section, the live settings included.
func (c Config) Validate() error {
	v := settings.NewValidator()
	if err := settings.Validate(v, c.Settings); err != nil {
		return err
	}
	for _, section := range []any{c.Camera, c.Detector, c.Display, c.API, c.Log} {
		if err := v.Struct(section); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				fe := fieldErrs[0]
				return fmt.Errorf("invalid config: %s failed %s", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// Write saves cfg to path as indented JSON.
func Write(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
