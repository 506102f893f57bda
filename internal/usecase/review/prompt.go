package review

import (
	"fmt"
	"strings"
)

// Criteria are the fixed rubric the reviewer applies to every change
// unit. Order matters: it is mirrored in the posted comment footer.
var Criteria = []string{
	"precondition checks",
	"runtime-error risk",
	"security issues",
	"optimization opportunities",
}

// DefaultNoIssuesMarker is the exact reply the model is instructed to
// give when a unit is clean. The dispatcher maps it to an empty
// verdict; it never reaches a posted comment.
const DefaultNoIssuesMarker = "LGTM"

// systemPrompt fixes the reviewer persona. It never varies per unit so
// identical inputs produce identical requests.
const systemPrompt = "You are a strict but helpful code reviewer. " +
	"You are given a fragment of a unified diff; lines starting with '+' are newly added code. " +
	"Review only the added lines. Reply in GitHub-flavored Markdown."

// BuildUnitPrompt renders the system and user prompts for one change
// unit or whole-file patch.
func BuildUnitPrompt(filename, text, noIssuesMarker string) (system, user string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("File: %s\n\n", filename))
	sb.WriteString("Evaluate the added code against these criteria:\n")
	for i, c := range Criteria {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c))
	}
	sb.WriteString(fmt.Sprintf("\nIf none of the criteria reveal a concrete issue, reply with exactly %q and nothing else.\n", noIssuesMarker))
	sb.WriteString("Otherwise describe each issue briefly and concretely.\n\n")
	sb.WriteString("```diff\n")
	sb.WriteString(text)
	sb.WriteString("\n```\n")

	return systemPrompt, sb.String()
}
