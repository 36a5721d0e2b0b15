// Package cliutil holds the flag and error plumbing shared by the nmsi commands.
package cliutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/core/config"
	"github.com/toru-nakai/nmsi/internal/core/platform"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
)

// UpdateHint is printed whenever the script store looks empty.
const UpdateHint = "Run 'nmsi update' to download installation scripts."

// PlatformFlags returns the --os and --arch override flags.
func PlatformFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "os", Usage: "OS type (default: auto-detect)"},
		&cli.StringFlag{Name: "arch", Usage: "Architecture (default: auto-detect)"},
	}
}

// Environment detects the host, applying any --os/--arch overrides.
func Environment(c *cli.Context) platform.Environment {
	return platform.NewDetector().Detect(platform.Overrides{
		OS:   c.String("os"),
		Arch: c.String("arch"),
	})
}

// LoadSettings loads the configuration or returns a cli exit error.
func LoadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return settings, nil
}

// ToolArg returns the first positional argument as a validated tool name.
func ToolArg(c *cli.Context) (string, error) {
	if !c.Args().Present() {
		return "", cli.Exit("Error: tool name argument is required.", 1)
	}
	tool := c.Args().First()
	if err := resolver.ValidateToolName(tool); err != nil {
		return "", cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return tool, nil
}

// ResolveExit converts a resolution failure into a multi-line cli exit
// error naming the expected path and the OS flavors that were tried.
func ResolveExit(err error, withHint bool) error {
	var notFound *resolver.NotFoundError
	if !errors.As(err, &notFound) {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	lines := []string{
		fmt.Sprintf("Error: Installation script not found for %s on %s/%s", notFound.Tool, notFound.Env.Primary(), notFound.Env.Arch),
		fmt.Sprintf("Expected primary path: %s", notFound.ExpectedPath),
		fmt.Sprintf("Tried OS flavors: %s", strings.Join(notFound.Env.OSFlavors, ", ")),
	}
	if withHint {
		lines = append(lines, UpdateHint)
	}
	return cli.Exit(strings.Join(lines, "\n"), 1)
}
