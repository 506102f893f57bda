package domain

import "strings"

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// FileDiff captures the change for a single file in a pull request.
// Patch is the unified-diff fragment as returned by the hosting API,
// starting at the first @@ hunk header. It is empty for binary files
// and for renames without content changes.
type FileDiff struct {
	Path   string
	Status string
	Patch  string
}

// HasPatch reports whether the file carries reviewable patch text.
func (f FileDiff) HasPatch() bool {
	return f.Patch != ""
}

// CommitRef identifies a commit within a pull request.
// Lists of CommitRef are ordered chronologically, oldest first,
// matching the hosting API's commit listing.
type CommitRef struct {
	SHA string
}

// Comparison is the result of comparing two commits.
type Comparison struct {
	Files   []FileDiff
	Commits []CommitRef
}

// Verdict is the outcome of reviewing one change unit. The zero value
// means "no issues found, suppress posting" and is a first-class
// outcome, not an error.
type Verdict struct {
	Body string
}

// Empty reports whether the verdict suppresses posting.
func (v Verdict) Empty() bool {
	return strings.TrimSpace(v.Body) == ""
}

// RunSummary folds per-unit outcomes into run-level counters.
type RunSummary struct {
	FilesReviewed int
	UnitsPosted   int
	UnitsClean    int
	UnitsSkipped  int
	UnitsFailed   int
}

// Reviewed reports whether the run examined any file at all. A false
// value is the "no change" terminal outcome, not a failure.
func (s RunSummary) Reviewed() bool {
	return s.FilesReviewed > 0
}
