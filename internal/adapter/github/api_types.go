package github

// GitHub REST API wire types.
// See: https://docs.github.com/en/rest/pulls

// ReviewEvent represents the action to take when submitting a review.
type ReviewEvent string

const (
	// EventComment submits the review without an approval state change.
	EventComment ReviewEvent = "COMMENT"

	// EventApprove approves the pull request.
	EventApprove ReviewEvent = "APPROVE"

	// EventRequestChanges requests changes to the pull request.
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// commitItem is one element of GET /repos/{owner}/{repo}/pulls/{pull_number}/commits.
type commitItem struct {
	SHA string `json:"sha"`
}

// fileItem is one element of GET /repos/{owner}/{repo}/pulls/{pull_number}/files
// and of the files array in a comparison. Patch is omitted by the API
// for binary files and very large diffs.
type fileItem struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch"`
}

// compareResponse is the body of GET /repos/{owner}/{repo}/compare/{base}...{head}.
type compareResponse struct {
	Files   []fileItem   `json:"files"`
	Commits []commitItem `json:"commits"`
}

// createCommentRequest is the body for
// POST /repos/{owner}/{repo}/pulls/{pull_number}/comments.
type createCommentRequest struct {
	Body     string `json:"body"`
	CommitID string `json:"commit_id"`
	Path     string `json:"path"`
	// Position is the line index in the diff (counted from the first
	// @@ hunk header), not a source-file line number.
	Position int `json:"position"`
}

// createReviewRequest is the body for
// POST /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type createReviewRequest struct {
	Body  string      `json:"body"`
	Event ReviewEvent `json:"event"`
}

// errorResponse represents an error body from the GitHub API.
type errorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
