package init

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/core/config"
	"github.com/toru-nakai/nmsi/internal/core/source"
)

// promptWithDefault asks the user for input and returns the entered value or a default if input is empty.
// Returns an error if reading input fails.
func promptWithDefault(reader *bufio.Reader, promptText string, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s (default: %s): ", promptText, defaultValue)
	} else {
		fmt.Printf("%s: ", promptText)
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input for '%s': %w", promptText, err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// InitCmd returns the definition for the "init" command.
func InitCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the nmsi data directory and write config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Usage: "Default `URL` used by 'nmsi update'", Value: config.DefaultRepo},
			&cli.StringFlag{Name: "shell", Usage: "Interpreter used to run installation scripts", Value: config.DefaultShell},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Accept flag values without prompting"},
			&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config.toml"},
		},
		Action: func(c *cli.Context) error {
			baseDir, err := config.ResolveBaseDir()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			settings := config.Defaults(baseDir)

			if _, statErr := os.Stat(settings.ConfigPath()); statErr == nil && !c.Bool("force") {
				return cli.Exit(fmt.Sprintf("Error: %s already exists. Use --force to overwrite.", settings.ConfigPath()), 1)
			}

			fmt.Printf("Initializing nmsi in %s...\n", baseDir)

			repo, shell := c.String("repo"), c.String("shell")
			if !c.Bool("yes") {
				reader := bufio.NewReader(os.Stdin)
				if repo, err = promptWithDefault(reader, "Default repository", repo); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if shell, err = promptWithDefault(reader, "Shell", shell); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}

			if _, err := source.ParseSourceURL(repo); err != nil {
				return cli.Exit(fmt.Sprintf("Error: invalid repository '%s': %v", repo, err), 1)
			}
			settings.DefaultRepo = repo
			settings.Shell = shell

			if err := os.MkdirAll(settings.InstallDir(), 0755); err != nil {
				return cli.Exit(fmt.Sprintf("Error creating %s: %v", settings.InstallDir(), err), 1)
			}
			if err := config.Write(settings); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing %s: %v", config.ConfigFileName, err), 1)
			}

			fmt.Println("\n--- Configuration ---")
			fmt.Printf("Repository: %s\n", settings.DefaultRepo)
			fmt.Printf("Shell:      %s\n", settings.Shell)
			fmt.Printf("Scripts:    %s\n", settings.InstallDir())
			fmt.Println("---------------------")
			fmt.Printf("\nSuccessfully wrote %s.\n", settings.ConfigPath())
			return nil
		},
	}
}
