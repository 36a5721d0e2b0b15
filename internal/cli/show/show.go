// Package show implements the 'show' command, which prints the script that
// 'install' would run for a tool.
package show

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/cliutil"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
)

// ShowCmd returns the cli.Command for 'show'.
func ShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show installation script content",
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

			loc, err := resolver.New(settings.InstallDir(), cliutil.Environment(c)).Resolve(tool)
			if err != nil {
				return cliutil.ResolveExit(err, false)
			}

			content, err := os.ReadFile(loc.Path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: Failed to read script: %v", err), 1)
			}

			fmt.Printf("# Installation script for %s (%s/%s)\n", tool, loc.OSFlavor, loc.Arch)
			fmt.Printf("# Path: %s\n", loc.Path)
			fmt.Println()
			fmt.Print(string(content))
			return nil
		},
	}
}
