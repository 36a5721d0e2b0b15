// Package add implements the 'add' command, which stores a local or remote
// script as a tool's installation script for a given OS and architecture.
package add

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/cliutil"
	"github.com/toru-nakai/nmsi/internal/core/config"
	"github.com/toru-nakai/nmsi/internal/core/downloader"
	"github.com/toru-nakai/nmsi/internal/core/hasher"
	"github.com/toru-nakai/nmsi/internal/core/logging"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
	"github.com/toru-nakai/nmsi/internal/core/runner"
)

func parseAddArgs(c *cli.Context) (scriptPath, toolName string, err error) {
	if c.NArg() == 0 {
		return "", "", fmt.Errorf("<script> argument is required")
	}
	scriptPath = c.Args().Get(0)
	toolName = c.String("name")
	if err := resolver.ValidateToolName(toolName); err != nil {
		return "", "", err
	}
	return scriptPath, toolName, nil
}

func isRemote(scriptPath string) bool {
	return strings.HasPrefix(scriptPath, "http://") || strings.HasPrefix(scriptPath, "https://")
}

// loadScript reads scriptPath from disk, or downloads it when it is an
// http(s) URL.
func loadScript(ctx context.Context, settings *config.Settings, scriptPath string) ([]byte, error) {
	if isRemote(scriptPath) {
		return downloader.New(settings.HTTPRetries).Fetch(ctx, scriptPath)
	}
	return readScript(scriptPath)
}

// scriptName is the base name used in lint diagnostics.
func scriptName(scriptPath string) string {
	if isRemote(scriptPath) {
		return path.Base(scriptPath)
	}
	return filepath.Base(scriptPath)
}

func readScript(scriptPath string) ([]byte, error) {
	info, err := os.Stat(scriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("script file not found: %s", scriptPath)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a file: %s", scriptPath)
	}
	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("reading '%s': %w", scriptPath, err)
	}
	return content, nil
}

// destinationPath is install/<tool>/<os>/<arch>/install.sh under settings.
func destinationPath(settings *config.Settings, toolName, osName, arch string) string {
	return filepath.Join(settings.InstallDir(), toolName, osName, arch, resolver.ScriptName)
}

func saveScript(destPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating directory '%s': %w", filepath.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, content, 0755); err != nil {
		return fmt.Errorf("writing file '%s': %w", destPath, err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(destPath, 0755)
}

// AddCmd provides the CLI command definition for 'add'.
func AddCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name of the tool", Required: true},
	}
	return &cli.Command{
		Name:      "add",
		Usage:     "Add an installation script for a tool",
		ArgsUsage: "<script|url>",
		Flags:     append(flags, cliutil.PlatformFlags()...),
		Action: func(c *cli.Context) error {
			scriptPath, toolName, err := parseAddArgs(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			settings, err := cliutil.LoadSettings()
			if err != nil {
				return err
			}

			content, err := loadScript(c.Context, settings, scriptPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			if lintErr := runner.Lint(scriptName(scriptPath), string(content)); lintErr != nil {
				warn := color.New(color.FgYellow).SprintFunc()
				fmt.Fprintln(os.Stderr, warn(fmt.Sprintf("Warning: %v", lintErr)))
			}
			env := cliutil.Environment(c)
			destPath := destinationPath(settings, toolName, env.Primary(), env.Arch)
			logging.From(c).Debug("adding script", "tool", toolName, "dest", destPath)

			if err := saveScript(destPath, content); err != nil {
				return cli.Exit(fmt.Sprintf("Error: Failed to copy script: %v", err), 1)
			}
			digest, err := hasher.CalculateSHA256(content)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			fmt.Println(color.New(color.FgGreen).Sprintf("Added script for %s (%s/%s)", toolName, env.Primary(), env.Arch))
			fmt.Printf("  Source: %s\n", scriptPath)
			fmt.Printf("  Destination: %s\n", destPath)
			fmt.Printf("  Digest: %s\n", digest)
			return nil
		},
	}
}
