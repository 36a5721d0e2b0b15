// Package reserved registers command names that are part of the interface
// but not implemented yet. Each always fails with exit code 1.
package reserved

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func notImplemented(name string) cli.ActionFunc {
	return func(*cli.Context) error {
		return cli.Exit(fmt.Sprintf("Error: %s command is not yet implemented.", name), 1)
	}
}

// UninstallCmd returns the placeholder 'uninstall' command.
func UninstallCmd() *cli.Command {
	return &cli.Command{
		Name:      "uninstall",
		Usage:     "Uninstall a tool (not yet implemented)",
		ArgsUsage: "<tool>",
		Action:    notImplemented("uninstall"),
	}
}

// PluginCmd returns the placeholder 'plugin' command.
func PluginCmd() *cli.Command {
	return &cli.Command{
		Name:      "plugin",
		Usage:     "Manage plugins (not yet implemented)",
		ArgsUsage: "[name]",
		Action:    notImplemented("plugin"),
	}
}
