package config

import (
	"fmt"
	"strconv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MIRRORBOOTH_"

type override struct {
	name  string
	apply func(c *Config, v string) error
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func boolVar(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func stringVar(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

var overrides = []override{
	{"CAMERA_DEVICE", intVar(func(c *Config) *int { return &c.Camera.Device })},
	{"CAMERA_FILE", stringVar(func(c *Config) *string { return &c.Camera.File })},
	{"DETECTOR", stringVar(func(c *Config) *string { return &c.Detector.Kind })},
	{"FACE_MODEL", stringVar(func(c *Config) *string { return &c.Detector.FaceModel })},
	{"MESH_MODEL", stringVar(func(c *Config) *string { return &c.Detector.MeshModel })},
	{"ORT_LIBRARY", stringVar(func(c *Config) *string { return &c.Detector.ORTLibrary })},
	{"COREML", boolVar(func(c *Config) *bool { return &c.Detector.CoreML })},
	{"REMOTE_URL", stringVar(func(c *Config) *string { return &c.Detector.RemoteURL })},
	{"WINDOW", boolVar(func(c *Config) *bool { return &c.Display.Window })},
	{"SHADOWS", boolVar(func(c *Config) *bool { return &c.Display.Shadows })},
	{"API", boolVar(func(c *Config) *bool { return &c.API.Enabled })},
	{"API_ADDR", stringVar(func(c *Config) *string { return &c.API.Addr })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FILE", stringVar(func(c *Config) *string { return &c.Log.File })},
	{"FILTER", stringVar(func(c *Config) *string { return &c.Settings.FilterID })},
	{"INTENSITY", intVar(func(c *Config) *int { return &c.Settings.Intensity })},
	{"BRIGHTNESS", intVar(func(c *Config) *int { return &c.Settings.Brightness })},
	{"AUTO_ROTATE", boolVar(func(c *Config) *bool { return &c.Settings.AutoRotate })},
}

// EnvNames lists every recognised environment variable.
func EnvNames() []string {
	names := make([]string, len(overrides))
	for i, o := range overrides {
		names[i] = EnvPrefix + o.name
	}
	return names
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, o := range overrides {
		v, ok := lookup(EnvPrefix + o.name)
		if !ok {
			continue
		}
		if err := o.apply(c, v); err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, o.name, v, err)
		}
	}
	return nil
}
