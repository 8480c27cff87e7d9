// Package logging provides config-driven categorized file logging for the
// phonebook client. The TUI owns the terminal, so logs only ever go to a file,
// and nothing is written at all unless debug mode is on.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"phonebook/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config loading
	CategoryGateway   Category = "gateway"   // REST calls to the contact collection
	CategoryReconcile Category = "reconcile" // Create/update/delete decisions
	CategoryStore     Category = "store"     // State transitions, notification timers
	CategoryUI        Category = "ui"        // Interactive page
	CategoryCLI       Category = "cli"       // Non-interactive commands
)

// Options is the logging section of the config file.
type Options = config.LoggingConfig

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	opts    Options
	file    *os.File
	loggers = make(map[Category]*zap.Logger)
)

// Initialize builds the root logger. With DebugMode off it is a silent no-op.
func Initialize(o Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	opts = o

	if !o.DebugMode {
		return nil
	}
	if o.File == "" {
		return fmt.Errorf("log file path required in debug mode")
	}
	if err := os.MkdirAll(filepath.Dir(o.File), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	file = f
	root = zap.New(newCore(o, zapcore.AddSync(f)))
	root.Named(string(CategoryBoot)).Info("logging initialized",
		zap.String("file", o.File),
		zap.String("level", parseLevel(o.Level).String()))
	return nil
}

// NewWithCore installs a logger over an arbitrary core. Tests use it with
// zaptest/observer.
func NewWithCore(core zapcore.Core, o Options) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	opts = o
	root = zap.New(core)
}

func newCore(o Options, ws zapcore.WriteSyncer) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(o.Format, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(parseLevel(o.Level)))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
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

// IsCategoryEnabled returns whether a specific category is enabled.
// Categories not listed are on in debug mode.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	return opts.IsCategoryEnabled(string(category))
}

// Get returns the logger for a category, or a no-op logger when the category
// is disabled.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := zap.NewNop()
	if categoryEnabledLocked(category) {
		l = root.Named(string(category))
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sync()
}

// Reset closes the log file and returns to the silent default.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	opts = Options{}
}

func closeLocked() {
	_ = root.Sync()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	root = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
}
