// Package telemetry sets up logging, tracing and metrics export for procmine.
package telemetry

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	perrors "github.com/logflow/procmine/pkg/errors"
)

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel, nil
	case "", "info":
		return zap.InfoLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, perrors.Newf(perrors.CodeInvalidConfig, "unknown log level %q", level)
	}
}

// NewLogger builds a production JSON logger at the given level.
// debug forces the debug level and switches to the console encoder.
func NewLogger(level string, debug bool) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		lvl = zap.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = !debug

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, perrors.Wrap(err, perrors.CodeInvalidConfig, "building logger")
	}
	return logger, cfg.Level, nil
}
