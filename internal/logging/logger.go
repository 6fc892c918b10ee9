// Package logging builds the zap loggers used by the CLI, the HTTP server and
// the desktop app.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/flowrec/flowrec"
)

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig(format string) zapcore.EncoderConfig {
	var encCfg zapcore.EncoderConfig
	if format == "json" {
		encCfg = zap.NewProductionEncoderConfig()
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return encCfg
}

// New constructs a logger writing to stderr. Unknown levels fall back to info
// and unknown formats to console output.
func New(cfg flowrec.LogConfig) (*zap.Logger, error) {
	format := "console"
	if strings.EqualFold(cfg.Format, "json") {
		format = "json"
	}
	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Development:      format == "console",
		Encoding:         format,
		EncoderConfig:    encoderConfig(format),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	z, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return z, nil
}

// NewWriter constructs a logger that writes console-encoded entries to w.
// The desktop app uses it to mirror log output into its log pane.
func NewWriter(cfg flowrec.LogConfig, w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(encoderConfig("console"))
	core := zapcore.NewCore(enc, zapcore.AddSync(w), parseLevel(cfg.Level))
	return zap.New(core)
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
