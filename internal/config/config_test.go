package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/dudu/mirrorbooth/internal/settings"
)

func TestDefaultIsValid(t *testing.T) {
	test.That(t, Default().Validate(), test.ShouldBeNil)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Default())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	test.That(t, os.WriteFile(path, []byte(`{
		"camera": {"file": "demo.mp4"},
		"detector": {"kind": "remote", "remoteURL": "ws://127.0.0.1:9000/landmarks"},
		"settings": {"filterId": "crown", "intensity": 60, "rotationInterval": 10}
	}`), 0o644), test.ShouldBeNil)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.File, test.ShouldEqual, "demo.mp4")
	test.That(t, cfg.Camera.Width, test.ShouldEqual, 1280)
	test.That(t, cfg.Detector.Kind, test.ShouldEqual, DetectorRemote)
	test.That(t, cfg.Settings.FilterID, test.ShouldEqual, "crown")
	test.That(t, cfg.Settings.Intensity, test.ShouldEqual, 60)
	test.That(t, cfg.Settings.Brightness, test.ShouldEqual, 100)
	test.That(t, cfg.Settings.RotationInterval, test.ShouldEqual, 10)
}

func TestLoadRejects(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":         `{"camera": `,
		"unknown filter": `{"settings": {"filterId": "monocle"}}`,
		"brightness":     `{"settings": {"brightness": 10}}`,
		"detector kind":  `{"detector": {"kind": "magic"}}`,
		"remote url":     `{"detector": {"kind": "remote"}}`,
		"refresh rate":   `{"display": {"refreshRate": 0}}`,
		"log level":      `{"log": {"level": "chatty"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.json")
			test.That(t, os.WriteFile(path, []byte(body), 0o644), test.ShouldBeNil)
			_, err := Load(path)
			test.That(t, err, test.ShouldNotBeNil)
		})
	}

	path := filepath.Join(t.TempDir(), "c.json")
	test.That(t, os.WriteFile(path, []byte(`{"settings": {"filterId": "monocle"}}`), 0o644), test.ShouldBeNil)
	_, err := Load(path)
	test.That(t, err, test.ShouldWrap, settings.ErrInvalid)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIRRORBOOTH_CAMERA_DEVICE", "2")
	t.Setenv("MIRRORBOOTH_FILTER", "stars")
	t.Setenv("MIRRORBOOTH_SHADOWS", "false")
	t.Setenv("MIRRORBOOTH_API_ADDR", ":9999")

	cfg, err := Load("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.Device, test.ShouldEqual, 2)
	test.That(t, cfg.Settings.FilterID, test.ShouldEqual, "stars")
	test.That(t, cfg.Display.Shadows, test.ShouldBeFalse)
	test.That(t, cfg.API.Addr, test.ShouldEqual, ":9999")

	t.Setenv("MIRRORBOOTH_INTENSITY", "lots")
	_, err = Load("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "MIRRORBOOTH_INTENSITY")
}

func TestEnvNames(t *testing.T) {
	names := EnvNames()
	test.That(t, names, test.ShouldContain, "MIRRORBOOTH_FILTER")
	test.That(t, names, test.ShouldContain, "MIRRORBOOTH_REMOTE_URL")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	test.That(t, os.WriteFile(path, []byte("MIRRORBOOTH_TEST_DOTENV=from-file\n"), 0o644), test.ShouldBeNil)
	t.Cleanup(func() { os.Unsetenv("MIRRORBOOTH_TEST_DOTENV") })

	test.That(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path), test.ShouldBeNil)
	test.That(t, os.Getenv("MIRRORBOOTH_TEST_DOTENV"), test.ShouldEqual, "from-file")
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	cfg := Default()
	cfg.Settings.FilterID = "vampire"
	test.That(t, Write(path, cfg), test.ShouldBeNil)
	got, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, cfg)
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	test.That(t, Write(path, Default()), test.ShouldBeNil)

	w, err := NewWatcher(path, nil, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Config, 4)
	done := make(chan error)
	go func() {
		done <- w.Run(ctx, func(c Config) error {
			got <- c
			return nil
		})
	}()

	// an invalid edit is skipped
	test.That(t, os.WriteFile(path, []byte(`{"settings": {"filterId": "monocle"}}`), 0o644), test.ShouldBeNil)
	time.Sleep(400 * time.Millisecond)

	next := Default()
	next.Settings.FilterID = "party"
	test.That(t, Write(path, next), test.ShouldBeNil)

	select {
	case c := <-got:
		test.That(t, c.Settings.FilterID, test.ShouldEqual, "party")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}
