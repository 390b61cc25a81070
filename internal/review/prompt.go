package review

import (
	"bytes"
	"path/filepath"
	"text/template"

	"github.com/go-enry/go-enry/v2"

	"github.com/tildaslashalef/pullcheck/internal/diff"
)

// Templates for building prompts
const reviewSystemPrompt = `You are an expert code reviewer. Provide specific, actionable feedback focused on improving code quality and preventing issues.

Report every finding on its own line, starting with the marker "Line <number>:" where <number> is the post-change line number the finding applies to. Explanations and suggested fixes for a finding go on the lines directly below its marker. Do not use any other numbering scheme. If there is nothing worth reporting, reply with "No issues found." and no markers.`

const reviewPromptTemplate = `Please review this code diff and provide specific, actionable feedback.
Focus on:
- Potential bugs or errors
- Security concerns
- Performance improvements
- Code style and best practices

For each issue, specify:
1. The line number, as "Line <number>:"
2. The specific issue
3. A suggested fix

The diff is from file: {{.Path}}{{if .Language}} ({{.Language}}){{end}}

{{.Diff}}`

var promptTmpl = template.Must(template.New("review").Parse(reviewPromptTemplate))

// promptData is the input for the review prompt template
type promptData struct {
	Path     string
	Language string
	Diff     string
}

// detectLanguage names the language of a fragment from its path and diff
// body, for prompt context. Unknown languages yield an empty string.
func detectLanguage(fragment diff.Fragment) string {
	return enry.GetLanguage(filepath.Base(fragment.Path), []byte(fragment.Body))
}

// buildReviewPrompt renders the per-file review prompt for a diff fragment
func buildReviewPrompt(fragment diff.Fragment) (string, error) {
	data := promptData{
		Path:     fragment.Path,
		Language: detectLanguage(fragment),
		Diff:     fragment.Body,
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
