package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tildaslashalef/pullcheck/internal/review"
	"github.com/tildaslashalef/pullcheck/internal/utils"
)

// renderResult prints a review run summary and its findings
func renderResult(w io.Writer, result *review.Result, dryRun bool) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	header := fmt.Sprintf("Review %s", result.Review.Name)
	if dryRun {
		header += yellow(" (dry run)")
	}
	fmt.Fprintln(w, header)

	comments := result.Comments()
	fmt.Fprintf(w, "Files reviewed: %d, findings: %d", result.Review.FilesReviewed, len(comments))
	if !dryRun {
		fmt.Fprintf(w, ", posted: %d", result.Review.CommentsPosted)
	}
	fmt.Fprintln(w)

	for _, f := range result.Files {
		switch {
		case f.Err != nil:
			fmt.Fprintf(w, "  %s %s: %v\n", red("FAIL"), f.Path, f.Err)
		case f.Skipped:
			fmt.Fprintf(w, "  %s %s\n", yellow("SKIP"), f.Path)
		}
	}

	if len(comments) == 0 {
		fmt.Fprintln(w, green("No issues found"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"File", "Line", "Finding"})
	for _, c := range comments {
		summary := strings.SplitN(c.Content, "\n", 2)[0]
		t.AppendRow(table.Row{c.File, c.Line, utils.TruncateString(summary, 80)})
	}
	t.Render()
}
