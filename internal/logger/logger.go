package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

// Options selects the level and sinks of the process logger.
type Options struct {
	Level string
	// OutputPaths are zap sink URLs or file paths. Empty means stderr.
	OutputPaths []string
}

// Configure replaces the process logger. It is called once by each run
// mode before any work starts; TUI and MCP stdio modes must keep stdout
// free of log lines.
func Configure(opts Options) error {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return err
		}
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = paths
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// GetLogger returns the process logger, building a stderr logger on first use.
func GetLogger() *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	if err := Configure(Options{}); err != nil {
		return zap.NewNop()
	}

	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger overrides the process logger, mostly for tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}
