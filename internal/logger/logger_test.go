package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("test", Config{Level: "loud"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booth.log")
	log, err := New("booth", Config{Level: "debug", File: path, MaxSizeMB: 1})
	test.That(t, err, test.ShouldBeNil)

	log.Debugw("frame done", "frames", 3)
	_ = log.Sync()

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "DEBUG")
	test.That(t, string(data), test.ShouldContainSubstring, "booth")
	test.That(t, string(data), test.ShouldContainSubstring, `{"frames": 3}`)
}
