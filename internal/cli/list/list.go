// Package list implements the 'list' command for displaying the tools that
// have installation scripts, and the sources that populated the store.
package list

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/cliutil"
	"github.com/toru-nakai/nmsi/internal/core/config"
	"github.com/toru-nakai/nmsi/internal/core/lockfile"
	"github.com/toru-nakai/nmsi/internal/core/platform"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
)

// ListCmd returns a cli.Command that lists available tools.
func ListCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "List all tools regardless of OS/architecture"},
		&cli.BoolFlag{Name: "sources", Usage: "Show the sources recorded by 'nmsi update'"},
	}
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List available tools",
		Flags:   append(flags, cliutil.PlatformFlags()...),
		Action: func(c *cli.Context) error {
			settings, err := cliutil.LoadSettings()
			if err != nil {
				return err
			}

			if c.Bool("sources") {
				return printSources(settings)
			}

			env := cliutil.Environment(c)
			all := c.Bool("all")
			tools, err := resolver.New(settings.InstallDir(), env).Tools(all)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			printTools(tools, all, env)
			return nil
		},
	}
}

func printTools(tools []string, all bool, env platform.Environment) {
	headerColor := color.New(color.FgCyan, color.Bold).SprintFunc()
	toolColor := color.New(color.FgWhite).SprintFunc()

	if len(tools) == 0 {
		if all {
			fmt.Println("No tools available. " + cliutil.UpdateHint)
			return
		}
		fmt.Printf("No tools available for %s/%s.\n", env.Primary(), env.Arch)
		fmt.Println(cliutil.UpdateHint)
		return
	}

	if all {
		fmt.Println(headerColor("All available tools:"))
	} else {
		fmt.Println(headerColor(fmt.Sprintf("Available tools for %s/%s:", env.Primary(), env.Arch)))
	}
	for _, tool := range tools {
		fmt.Printf("  - %s\n", toolColor(tool))
	}
}

// printSources shows the fetch ledger, one block per install root.
func printSources(settings *config.Settings) error {
	lf, err := lockfile.Load(settings.LockfilePath())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	roots := lf.Roots()
	if len(roots) == 0 {
		fmt.Println("No sources recorded. " + cliutil.UpdateHint)
		return nil
	}

	rootColor := color.New(color.FgMagenta, color.Bold).SprintFunc()
	detailColor := color.New(color.FgHiBlack).SprintFunc()
	hashColor := color.New(color.FgYellow).SprintFunc()

	for _, root := range roots {
		entry := lf.Source[root]
		fmt.Printf("%s %s\n", rootColor(root), detailColor(entry.Path))
		fmt.Printf("  url:      %s (%s)\n", entry.URL, entry.Kind)
		if entry.Revision != "" {
			fmt.Printf("  revision: %s\n", hashColor(entry.Revision))
		}
		if entry.Digest != "" {
			fmt.Printf("  digest:   %s\n", hashColor(entry.Digest))
		}
		fmt.Printf("  files:    %d\n", entry.Files)
		fmt.Printf("  updated:  %s\n", entry.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
