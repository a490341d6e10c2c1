// Package logger builds prefixed charmbracelet/log loggers so each component
// tags its own output.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger that reports timestamps and follows the global log
// level.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// Default creates a minimal logger without timestamps, for interactive
// output.
func Default(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}
