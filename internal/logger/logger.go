// Package logger configures the leveled console logger shared by the CLI
// and the collaborator packages.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options configures a logger
type Options struct {
	Debug  bool
	Output io.Writer
}

// New creates a timestamped logger writing to stderr unless Output is set
func New(opts Options) *log.Logger {
	level := log.InfoLevel
	if opts.Debug {
		level = log.DebugLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}
