// Package logger holds the process-wide hclog logger and package-level
// helpers for code that has no injected logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Options configures the root logger.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or text
	Output io.Writer
	Color  bool
}

var (
	mu   sync.RWMutex
	root = hclog.New(&hclog.LoggerOptions{
		Name:   "moviecatalog",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
)

// Init replaces the root logger.
func Init(opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	color := hclog.ColorOff
	if opts.Color {
		color = hclog.AutoColor
	}

	l := hclog.New(&hclog.LoggerOptions{
		Name:       "moviecatalog",
		Level:      ParseLevel(opts.Level),
		Output:     output,
		JSONFormat: strings.EqualFold(opts.Format, "json"),
		Color:      color,
	})

	mu.Lock()
	root = l
	mu.Unlock()
	return l
}

// ParseLevel maps a level name to an hclog level, defaulting to info.
func ParseLevel(level string) hclog.Level {
	l := hclog.LevelFromString(level)
	if l == hclog.NoLevel {
		return hclog.Info
	}
	return l
}

// Get returns the root logger.
func Get() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Named returns a sub-logger of the root logger.
func Named(name string) hclog.Logger {
	return Get().Named(name)
}

// SetLevel changes the level of the root logger in place.
func SetLevel(level string) {
	Get().SetLevel(ParseLevel(level))
}

// Info logs informational messages with key/value pairs
func Info(msg string, args ...interface{}) {
	Get().Info(msg, args...)
}

// Warn logs warning messages
func Warn(msg string, args ...interface{}) {
	Get().Warn(msg, args...)
}

// Error logs error messages
func Error(msg string, args ...interface{}) {
	Get().Error(msg, args...)
}

// Debug logs debug messages
func Debug(msg string, args ...interface{}) {
	Get().Debug(msg, args...)
}
