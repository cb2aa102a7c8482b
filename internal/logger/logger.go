// Package logger builds the process logger.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level and the optional rotating log file.
type Config struct {
	Level string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	// File enables a rotating log file next to console output when set
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" validate:"gte=0"`
	MaxBackups int    `json:"maxBackups" validate:"gte=0"`
	MaxAgeDays int    `json:"maxAgeDays" validate:"gte=0"`
}

// EncoderConfig is the console layout: same keys as prod, coloured levels.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a sugared logger named name writing to stderr and, when
// cfg.File is set, to a lumberjack-rotated file without colours.
func New(name string, cfg Config) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	enabled := zap.NewAtomicLevelAt(level)

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(EncoderConfig()), zapcore.Lock(os.Stderr), enabled),
	}
	if cfg.File != "" {
		fileEnc := EncoderConfig()
		fileEnc.EncodeLevel = zapcore.CapitalLevelEncoder
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fileEnc), zapcore.AddSync(rotator), enabled))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(name).Sugar(), nil
}
