package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLogLevel parses a zap level name, also accepting "warning".
// Unknown names map to info.
func ParseLogLevel(s string) zapcore.Level {
	name := strings.ToLower(s)
	if name == "warning" {
		name = "warn"
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// LoggerConfig configures the session logger.
type LoggerConfig struct {
	// Level is the minimum level written.
	Level zapcore.Level
	// File receives JSON log lines. Empty disables logging; the terminal
	// belongs to the user.
	File string
}

// NewLogger builds the session logger. Every entry carries a session id.
// The returned close function flushes and closes the log file.
func NewLogger(cfg LoggerConfig) (*zap.Logger, func() error, error) {
	if cfg.File == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), cfg.Level)
	logger := zap.New(core).With(zap.String("session", uuid.NewString()))

	closeFn := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}
