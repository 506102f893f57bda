package github

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatUnitComment renders a verdict body as a GitHub-flavored
// Markdown comment for an inline review comment. The criteria are the
// rubric names the reviewer was asked to apply; they are title-cased
// into a footer so readers know the scope of the check.
func FormatUnitComment(body string, criteria []string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")

	if len(criteria) > 0 {
		titled := make([]string, 0, len(criteria))
		for _, c := range criteria {
			titled = append(titled, titleCaser.String(c))
		}
		sb.WriteString(fmt.Sprintf("\n<sub>Checked: %s</sub>\n", strings.Join(titled, " · ")))
	}

	return sb.String()
}

// FormatSummaryReview renders per-file verdicts into a single
// whole-PR review body.
func FormatSummaryReview(sections map[string]string, order []string) string {
	var sb strings.Builder

	sb.WriteString("## Automated Review\n")
	for _, path := range order {
		body, ok := sections[path]
		if !ok || strings.TrimSpace(body) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n### `%s`\n\n%s\n", path, strings.TrimSpace(body)))
	}

	return sb.String()
}
