// Package transcript turns free-form review text into structured,
// line-anchored comments.
//
// Review transcripts coming back from a language model are not guaranteed
// to follow strict formatting. The extractor groups lines under the most
// recent "Line N:" marker on a best-effort basis: prose between numbered
// findings becomes trailing content of the finding above it, and prose
// before the first marker is dropped.
package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

// Comment is a single review finding anchored to a file line
type Comment struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// markerRe matches a "Line N:" marker anywhere in a line, any case
var markerRe = regexp.MustCompile(`(?i)line (\d+):`)

// markerLine reports whether line contains a usable line-number marker,
// returning the parsed number and the content following the marker's colon.
// Markers whose number overflows int or is zero are not usable; the line is
// then ordinary content.
func markerLine(line string) (int, string, bool) {
	m := markerRe.FindStringSubmatchIndex(line)
	if m == nil {
		return 0, "", false
	}

	number, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil || number <= 0 {
		return 0, "", false
	}

	return number, strings.TrimSpace(line[m[1]:]), true
}

// Extractor extracts comments from review transcripts
type Extractor struct {
	logger *loggy.Logger
}

// NewExtractor creates a new Extractor
func NewExtractor(logger *loggy.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract scans text line by line and returns the comments it contains,
// each associated with file. A marker line closes the previous comment and
// opens a new one; non-blank lines without a marker accumulate under the
// open comment. Extract is total: any input string yields a result.
func (e *Extractor) Extract(text, file string) []Comment {
	var (
		comments []Comment
		open     *Comment
	)

	for _, line := range strings.Split(text, "\n") {
		if number, rest, ok := markerLine(line); ok {
			if open != nil {
				comments = append(comments, *open)
			}
			open = &Comment{File: file, Line: number, Content: rest}
			continue
		}

		if open == nil {
			continue
		}

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			open.Content += "\n" + trimmed
		}
	}

	if open != nil {
		comments = append(comments, *open)
	}

	if len(comments) == 0 && strings.TrimSpace(text) != "" {
		e.logger.Debug("transcript contained no line markers", "file", file, "length", len(text))
	}

	return comments
}
