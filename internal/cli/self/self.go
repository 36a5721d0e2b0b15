// Package self provides self-management functionality for the nmsi binary.
package self

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/cliutil"
	"github.com/toru-nakai/nmsi/internal/core/logging"
)

// SelfCmd creates a command for managing the nmsi binary itself,
// currently supporting self-update functionality.
func SelfCmd() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the nmsi binary itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update nmsi to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "GitHub update source as 'owner/repo' (default: [self] repository in config.toml)",
					},
				},
				Action: updateAction,
			},
		},
	}
}

// updateAction handles the self-update process for the CLI application.
// It supports checking for and applying updates from GitHub releases.
// The function handles version comparison, user confirmation (unless --yes is specified),
// and supports custom GitHub repositories via the --source flag or config.toml.
func updateAction(c *cli.Context) error {
	logger := logging.From(c)
	currentVersionStr := c.App.Version

	settings, err := cliutil.LoadSettings()
	if err != nil {
		return err
	}

	currentSemVer, err := parseVersion(currentVersionStr, logger)
	if err != nil {
		return err // error is already a cli.Exit error
	}

	repoSlug, err := getRepoSlug(c.String("source"), settings.SelfRepo, logger)
	if err != nil {
		return err // error is already a cli.Exit error
	}

	updater, err := newUpdater(logger)
	if err != nil {
		return err // error is already a cli.Exit error
	}

	latestRelease, found, err := detectLatestVersion(c, updater, repoSlug, logger)
	if err != nil {
		return err // error is already a cli.Exit error
	}
	if !found {
		fmt.Printf("Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}

	logger.Debug("latest version detected", "version", latestRelease.Version(), "url", latestRelease.URL, "asset", latestRelease.AssetURL)
	if latestRelease.ReleaseNotes != "" {
		logger.Debug("release notes", "notes", latestRelease.ReleaseNotes)
	}

	newer, err := isNewer(currentSemVer, latestRelease.Version())
	if err != nil {
		return err
	}
	if !newer {
		fmt.Printf("Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}

	fmt.Printf("New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)

	if c.Bool("check") {
		return nil
	}

	proceed, err := confirmUpdate(os.Stdin, c.Bool("yes"))
	if err != nil {
		// This case should ideally not be reached if confirmUpdate handles its errors properly.
		return cli.Exit(fmt.Sprintf("Error during confirmation: %v", err), 1)
	}
	if !proceed {
		fmt.Println("Update cancelled.")
		return nil
	}

	fmt.Printf("Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	logger.Debug("replacing executable", "path", execPath)

	err = updater.UpdateTo(c.Context, latestRelease, execPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	fmt.Printf("Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}

// parseVersion parses the version string and returns a semver.Version.
// It handles versions with or without a 'v' prefix.
func parseVersion(versionStr string, logger *log.Logger) (*semver.Version, error) {
	logger.Debug("current version", "version", versionStr)

	v, err := semver.NewVersion(strings.TrimPrefix(versionStr, "v"))
	if err != nil {
		// Try parsing without trimming 'v' if the first attempt failed and it didn't have 'v'
		// This case is mostly defensive, as NewVersion usually handles 'v' prefix.
		if !strings.HasPrefix(versionStr, "v") {
			v, err = semver.NewVersion(versionStr)
		}
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("Error parsing current version '%s': %v. Ensure version is like vX.Y.Z or X.Y.Z.", versionStr, err), 1)
		}
	}

	logger.Debug("parsed current semantic version", "version", v.String())
	return v, nil
}

// getRepoSlug determines the GitHub repository slug to use for updates:
// --source wins over the configured repository.
func getRepoSlug(sourceFlag, configured string, logger *log.Logger) (string, error) {
	repoSlug, origin := configured, "[self] repository"
	if sourceFlag != "" {
		repoSlug, origin = sourceFlag, "--source"
	}

	parts := strings.Split(repoSlug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", cli.Exit(fmt.Sprintf("Invalid %s format. Expected 'owner/repo', got: %s.", origin, repoSlug), 1)
	}
	logger.Debug("using GitHub source", "repo", repoSlug, "from", origin)
	return repoSlug, nil
}

// isNewer reports whether the release version is strictly greater than current.
func isNewer(current *semver.Version, latest string) (bool, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, cli.Exit(fmt.Sprintf("Error parsing release version '%s': %v", latest, err), 1)
	}
	return v.GreaterThan(current), nil
}

// newUpdater creates and returns a new selfupdate.Updater instance.
func newUpdater(logger *log.Logger) (*selfupdate.Updater, error) {
	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: ghSource,
	})
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}
	logger.Debug("updater initialized")
	return updater, nil
}

// detectLatestVersion checks for the latest release using the provided updater and repository slug.
// It returns the latest release information, a boolean indicating if a release was found, and an error.
func detectLatestVersion(c *cli.Context, updater *selfupdate.Updater, repoSlug string, logger *log.Logger) (*selfupdate.Release, bool, error) {
	logger.Debug("checking for latest version", "repo", repoSlug)

	repository := selfupdate.ParseSlug(repoSlug)
	latestRelease, found, err := updater.DetectLatest(c.Context, repository)
	if err != nil {
		return nil, false, cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}

	if !found {
		logger.Debug("no release found for this platform")
		return nil, false, nil
	}
	return latestRelease, true, nil
}

// confirmUpdate handles the user confirmation step for the update.
// It returns true if the user answers y/yes or if --yes is specified.
// An empty answer or end of input declines.
func confirmUpdate(in io.Reader, autoConfirm bool) (bool, error) {
	if autoConfirm {
		return true, nil
	}

	fmt.Print("Do you want to update? (y/N): ")
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading user input: %w", err)
	}

	switch strings.TrimSpace(strings.ToLower(input)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
