// Package update implements the 'update' command, which refreshes the script
// store from the default remote or populates an overlay root from --from.
package update

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/cliutil"
	"github.com/toru-nakai/nmsi/internal/core/config"
	"github.com/toru-nakai/nmsi/internal/core/downloader"
	"github.com/toru-nakai/nmsi/internal/core/fetcher"
	"github.com/toru-nakai/nmsi/internal/core/lockfile"
	"github.com/toru-nakai/nmsi/internal/core/logging"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
	"github.com/toru-nakai/nmsi/internal/core/source"
)

// target is where a fetch lands and how it is recorded in the ledger.
type target struct {
	info     *source.ParsedSourceInfo
	dest     string
	rootName string
}

// UpdateCmd returns the cli.Command for 'update'.
func UpdateCmd() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Update installation scripts from GitHub or a specified URL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Download installation scripts from `URL` (supports http, https, file, git) into an overlay root",
			},
			&cli.StringFlag{
				Name:  "minisign-key",
				Usage: "Verify archive sources against <URL>.minisig using the public key at `PATH`",
			},
		},
		Action: func(c *cli.Context) error {
			settings, err := cliutil.LoadSettings()
			if err != nil {
				return err
			}
			logger := logging.From(c)

			tgt, err := resolveTarget(settings, c.String("from"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			if c.String("from") != "" {
				fmt.Printf("Downloading installation scripts from %s...\n", tgt.info.RawURL)
			} else {
				fmt.Println("Updating installation scripts from GitHub...")
				fmt.Printf("Repository: %s\n", tgt.info.RawURL)
			}
			fmt.Printf("Destination: %s\n\n", tgt.dest)

			minisignKey := c.String("minisign-key")
			if minisignKey != "" && tgt.info.Kind != source.KindArchive {
				logger.Warn("minisign key ignored for non-archive source", "kind", tgt.info.Kind)
			}

			f, err := fetcher.New(tgt.info, fetcher.Options{
				Downloader:  downloader.New(settings.HTTPRetries),
				MinisignKey: minisignKey,
				Logger:      logger,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			fmt.Printf("Copying from %s (%s)...\n", tgt.info.FetchURL, tgt.info.Kind)
			result, err := f.Fetch(c.Context, tgt.dest)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			fmt.Printf("Copied %d file(s) to %s\n", result.Files, tgt.dest)

			if err := record(settings, tgt, result); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record source in %s: %v\n", config.LockfileName, err)
			}

			fmt.Println()
			fmt.Println(color.New(color.FgGreen).Sprint("Update completed."))
			return nil
		},
	}
}

// resolveTarget picks the primary root for the default remote and an
// @<repo> overlay root for an explicit source.
func resolveTarget(settings *config.Settings, from string) (*target, error) {
	if from == "" {
		info, err := source.ParseSourceURL(settings.DefaultRepo)
		if err != nil {
			return nil, err
		}
		return &target{info: info, dest: settings.InstallDir(), rootName: config.InstallDirName}, nil
	}

	info, err := source.ParseSourceURL(from)
	if err != nil {
		return nil, err
	}
	return &target{
		info:     info,
		dest:     settings.OverlayDir(info.RepoName),
		rootName: resolver.OverlayPrefix + info.RepoName,
	}, nil
}

func record(settings *config.Settings, tgt *target, result *fetcher.Result) error {
	lf, err := lockfile.Load(settings.LockfilePath())
	if err != nil {
		return err
	}
	lf.Record(tgt.rootName, lockfile.SourceEntry{
		URL:       tgt.info.RawURL,
		Kind:      tgt.info.Kind.String(),
		Path:      tgt.dest,
		Revision:  result.Revision,
		Digest:    result.Digest,
		Files:     result.Files,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	})
	return lockfile.Save(settings.LockfilePath(), lf)
}
