// Package commands implements the pullcheck CLI commands
package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/pullcheck/internal/app"
	"github.com/tildaslashalef/pullcheck/internal/review"
)

// ReviewCommand reviews a pull request and posts the findings back as
// review comments
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review a pull request and post findings as review comments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "Repository as owner/name (defaults to REPO_NAME)",
			},
			&cli.IntFlag{
				Name:    "pr",
				Aliases: []string{"p"},
				Usage:   "Pull request number (defaults to PR_NUMBER)",
			},
			&cli.StringFlag{
				Name:  "commit-sha",
				Usage: "Commit to anchor comments to (defaults to the PR head)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print findings instead of posting them",
			},
		},
		Action: reviewAction,
	}
}

func reviewAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	cfg := a.Config
	if slug := c.String("repo"); slug != "" {
		if err := cfg.SetRepository(slug); err != nil {
			return err
		}
	}
	if c.Int("pr") > 0 {
		cfg.GitHub.PRNumber = c.Int("pr")
	}
	if sha := c.String("commit-sha"); sha != "" {
		cfg.GitHub.CommitSHA = sha
	}

	if err := cfg.ValidateForPR(); err != nil {
		return err
	}

	opts := review.Options{
		Owner:     cfg.GitHub.Owner,
		Repo:      cfg.GitHub.Repo,
		PRNumber:  cfg.GitHub.PRNumber,
		CommitSHA: cfg.GitHub.CommitSHA,
		DryRun:    c.Bool("dry-run") || cfg.Review.DryRun,
	}

	a.Logger.Info("starting pull request review",
		"repo", fmt.Sprintf("%s/%s", opts.Owner, opts.Repo),
		"pr", opts.PRNumber,
		"dry_run", opts.DryRun)

	result, err := a.Review.ReviewPR(c.Context, opts)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	renderResult(c.App.Writer, result, opts.DryRun)
	return nil
}
