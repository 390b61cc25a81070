package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/pullcheck/internal/app"
)

// HistoryCommand lists past review runs
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent review runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   10,
			},
		},
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	reviews, err := a.Repo.ListReviews(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("listing reviews: %w", err)
	}

	if len(reviews) == 0 {
		fmt.Fprintln(c.App.Writer, "No reviews yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Repository", "PR", "Status", "Files", "Posted", "When"})

	for _, r := range reviews {
		repo := r.Repo
		if r.Owner != "" {
			repo = r.Owner + "/" + r.Repo
		}
		t.AppendRow(table.Row{
			r.Name,
			repo,
			r.PRNumber,
			string(r.Status),
			r.FilesReviewed,
			r.CommentsPosted,
			r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	t.Render()
	return nil
}
