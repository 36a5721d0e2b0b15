// Package install implements the 'install' command, which resolves a tool's
// installation script and runs it with the configured shell.
package install

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/cliutil"
	"github.com/toru-nakai/nmsi/internal/core/logging"
	"github.com/toru-nakai/nmsi/internal/core/platform"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
	"github.com/toru-nakai/nmsi/internal/core/runner"
)

// InstallCmd returns the cli.Command for 'install'.
func InstallCmd() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install a tool by running its installation script",
		ArgsUsage: "<tool>",
		Flags:     cliutil.PlatformFlags(),
		Action: func(c *cli.Context) error {
			tool, err := cliutil.ToolArg(c)
			if err != nil {
				return err
			}

			settings, err := cliutil.LoadSettings()
			if err != nil {
				return err
			}
			env := cliutil.Environment(c)
			logger := logging.From(c)
			logger.Debug("resolving script", "tool", tool, "flavors", env.OSFlavors, "arch", env.Arch)

			loc, err := resolver.New(settings.InstallDir(), env).Resolve(tool)
			if err != nil {
				return cliutil.ResolveExit(err, true)
			}
			logger.Debug("resolved script", "path", loc.Path, "root", loc.Root)

			fmt.Printf("Installing %s for %s/%s...\n", tool, loc.OSFlavor, loc.Arch)
			for _, note := range fallbackNotes(env, loc) {
				fmt.Println(note)
			}
			fmt.Printf("Running: %s\n", loc.Path)

			result := runner.New(settings.Shell).Run(c.Context, loc.Path)
			if result.Error != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", result.Error), 1)
			}
			if result.ExitCode != 0 {
				return cli.Exit(fmt.Sprintf("Error: Installation failed with exit code %d", result.ExitCode), result.ExitCode)
			}

			fmt.Println(color.New(color.FgGreen).Sprintf("Successfully installed %s", tool))
			return nil
		},
	}
}

// fallbackNotes explains when the resolved OS or arch differs from the host's.
func fallbackNotes(env platform.Environment, loc *resolver.ScriptLocation) []string {
	var notes []string
	if loc.OSFlavor != env.Primary() {
		notes = append(notes, fmt.Sprintf("Note: Falling back from %s to %s.", env.Primary(), loc.OSFlavor))
	}
	if loc.Arch != env.Arch {
		notes = append(notes, fmt.Sprintf("Note: Falling back from %s to %s.", env.Arch, loc.Arch))
	}
	return notes
}
