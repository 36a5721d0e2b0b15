// Command nmsi installs developer tools by running per-platform install scripts
// kept under $NMSI_PATH/install.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/cli/add"
	initcmd "github.com/toru-nakai/nmsi/internal/cli/init"
	"github.com/toru-nakai/nmsi/internal/cli/install"
	"github.com/toru-nakai/nmsi/internal/cli/list"
	"github.com/toru-nakai/nmsi/internal/cli/reserved"
	"github.com/toru-nakai/nmsi/internal/cli/self"
	"github.com/toru-nakai/nmsi/internal/cli/show"
	"github.com/toru-nakai/nmsi/internal/cli/update"
	"github.com/toru-nakai/nmsi/internal/core/logging"
)

// version is the application version, set at build time.
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "nmsi",
		Usage:   "Install tools with per-OS, per-architecture install scripts",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Print debug diagnostics to stderr",
				EnvVars: []string{"NMSI_VERBOSE"},
			},
		},
		Before: func(c *cli.Context) error {
			logging.Attach(c, logging.New(os.Stderr, c.Bool("verbose")))
			return nil
		},
		Action: func(c *cli.Context) error {
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			install.InstallCmd(),
			list.ListCmd(),
			update.UpdateCmd(),
			add.AddCmd(),
			show.ShowCmd(),
			initcmd.InitCmd(),
			reserved.UninstallCmd(),
			reserved.PluginCmd(),
			self.SelfCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
