// Package diff splits multi-file unified diffs into per-file fragments.
//
// The splitter understands only the "diff --git a/<path> b/<path>" header
// convention; hunk headers, context lines and +/- lines are carried as
// opaque body text and never re-parsed.
package diff

import (
	"regexp"
	"strings"

	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

// Fragment is the contiguous slice of a multi-file diff belonging to one
// file, header line included
type Fragment struct {
	Path string `json:"path"`
	Body string `json:"body"`
}

// headerRe captures the post-change path from a diff header line. The a/
// segment is matched greedily so paths containing " b/" resolve to the
// last b/ segment on the line, mirroring git's own output.
var headerRe = regexp.MustCompile(`^diff --git a/.* b/(.+)$`)

// isHeader reports whether line begins a new file section, well formed or not
func isHeader(line string) bool {
	return strings.HasPrefix(line, "diff --git")
}

// headerPath extracts the post-change path from a diff header line.
// It returns false for lines that are not headers or that lack a
// recognizable b/ segment.
func headerPath(line string) (string, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimRight(m[1], " \t\r"), true
}

// Splitter splits unified diff text into per-file fragments
type Splitter struct {
	logger *loggy.Logger
}

// NewSplitter creates a new Splitter
func NewSplitter(logger *loggy.Logger) *Splitter {
	return &Splitter{logger: logger}
}

// Split scans diffText line by line and returns one Fragment per file, in
// the order the files appear in the input.
//
// Lines before the first header are discarded. A header whose b/ path
// cannot be extracted is treated as malformed: the file it introduces is
// skipped entirely (its lines are dropped up to the next well-formed
// header) and a warning is logged, so body lines are never mis-attributed
// to the previous file. Split is total: any input string yields a result.
func (s *Splitter) Split(diffText string) []Fragment {
	var (
		fragments []Fragment
		path      string
		body      []string
		open      bool
	)

	flush := func() {
		if open {
			fragments = append(fragments, Fragment{
				Path: path,
				Body: strings.Join(body, "\n"),
			})
			open = false
		}
	}

	for _, line := range strings.Split(diffText, "\n") {
		if isHeader(line) {
			flush()

			p, ok := headerPath(line)
			if !ok {
				s.logger.Warn("skipping file with malformed diff header", "line", line)
				continue
			}

			open = true
			path = p
			body = []string{line}
			continue
		}

		if open {
			body = append(body, line)
		}
	}

	flush()

	return fragments
}
