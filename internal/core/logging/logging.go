// Package logging builds the diagnostic logger shared by all commands.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

const metadataKey = "logger"

// New returns a stderr logger; verbose enables debug output.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "nmsi",
		Level:  level,
	})
}

// Attach stores logger on the app so subcommands can retrieve it.
func Attach(c *cli.Context, logger *log.Logger) {
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[metadataKey] = logger
}

// From returns the logger attached to the app, or a quiet default when the
// command runs without the root Before hook (as in tests).
func From(c *cli.Context) *log.Logger {
	if c != nil && c.App != nil {
		if logger, ok := c.App.Metadata[metadataKey].(*log.Logger); ok {
			return logger
		}
	}
	return New(os.Stderr, false)
}
