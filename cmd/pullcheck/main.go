package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/pullcheck/internal/app"
	"github.com/tildaslashalef/pullcheck/internal/commands"
)

// Version information - populated at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config-dir",
		Usage: "Directory holding the .env file and database (default: ~/.pullcheck)",
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Path to an .env file to load",
	},
}

func main() {
	cliApp := &cli.App{
		Name:  "pullcheck",
		Usage: "LLM-powered pull request reviewer",
		Description: "Pullcheck fetches a pull request diff, asks Claude to review each\n" +
			"changed file, and posts the findings back as line-anchored review comments.\n\n" +
			"When run without a subcommand it reviews the pull request named by the\n" +
			"environment (REPO_NAME, PR_NUMBER), which is how the GitHub Actions\n" +
			"workflow invokes it.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Flags: globalFlags,
		Before: func(c *cli.Context) error {
			application, err := app.New(c.String("config-dir"), c.String("env-file"))
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			c.App.Metadata = map[string]interface{}{
				"app": application,
			}

			return nil
		},
		After: func(c *cli.Context) error {
			if application, ok := c.App.Metadata["app"].(*app.App); ok {
				return application.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.ReviewCommand(),
			commands.LocalCommand(),
			commands.HistoryCommand(),
			commands.MigrateCommand(),
		},
		Action: func(c *cli.Context) error {
			// Default action is to run the review command
			return commands.ReviewCommand().Action(c)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
