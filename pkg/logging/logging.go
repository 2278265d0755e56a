// Package logging builds the hclog loggers used across pngme.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/ssargent/pngme/pkg/config"
)

// New returns a named logger configured from cfg. A nil output writes to stderr.
func New(name string, cfg config.Logging, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     output,
		JSONFormat: cfg.Format == "json",
	})
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
