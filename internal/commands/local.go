package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/pullcheck/internal/app"
)

// LocalCommand reviews changes in a local repository without touching
// GitHub
func LocalCommand() *cli.Command {
	return &cli.Command{
		Name:  "local",
		Usage: "Review a local commit or branch without posting anything",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the git repository",
				Value: ".",
			},
			&cli.StringFlag{
				Name:    "commit",
				Aliases: []string{"c"},
				Usage:   "Review the changes introduced by a commit",
			},
			&cli.StringFlag{
				Name:    "branch",
				Aliases: []string{"b"},
				Usage:   "Review the changes a branch introduces",
			},
			&cli.StringFlag{
				Name:  "base-branch",
				Usage: "Base branch to diff against",
				Value: "main",
			},
		},
		Action: localAction,
	}
}

func localAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	commit := c.String("commit")
	branch := c.String("branch")
	if commit == "" && branch == "" {
		return fmt.Errorf("either --commit or --branch is required")
	}
	if commit != "" && branch != "" {
		return fmt.Errorf("--commit and --branch are mutually exclusive")
	}

	if err := a.Git.InitRepo(c.String("path")); err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	var diffText string
	if commit != "" {
		diffText, err = a.Git.CommitDiff(commit)
	} else {
		diffText, err = a.Git.BranchDiff(c.String("base-branch"), branch)
	}
	if err != nil {
		return fmt.Errorf("computing diff: %w", err)
	}

	result, err := a.Review.ReviewLocal(c.Context, diffText)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	renderResult(c.App.Writer, result, true)
	return nil
}
