// Package logger builds the zap loggers handed to engine components.
package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bitfsorg/libsynapse-go/errors"
)

// ErrInvalidLevel indicates an unrecognized log level name.
var ErrInvalidLevel = errors.New("logger: invalid level")

// ParseLevel maps "debug", "info", "warn" or "error" (any case) to a zap level.
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
	}
	return zap.InfoLevel, errors.Wrapf(ErrInvalidLevel, "%q", level)
}

// New returns a logger at level. With an empty file it writes human-readable
// console output to stderr; otherwise JSON lines are appended to file.
func New(level, file string) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if file == "" {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			lvl,
		)
		return zap.New(core).Sugar(), nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return nil, errors.Wrap(err, "logger: create log directory")
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{file}
	config.ErrorOutputPaths = []string{"stderr"}
	zl, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logger: build")
	}
	return zl.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }
