package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// CompareClient is the slice of the hosting API the narrower needs.
type CompareClient interface {
	CompareCommits(ctx context.Context, owner, repo, base, head string) (domain.Comparison, error)
}

// RangeNarrower restricts the reviewed file set to the most recent
// push when a pull request has accumulated multiple commits, so files
// reviewed on an earlier push are not reviewed again.
type RangeNarrower struct {
	host   CompareClient
	ignore map[string]struct{}
}

// NewRangeNarrower constructs a narrower. ignoreList is the raw
// newline-separated file name list; matching is exact and
// case-sensitive.
func NewRangeNarrower(host CompareClient, ignoreList string) *RangeNarrower {
	return &RangeNarrower{
		host:   host,
		ignore: parseIgnoreList(ignoreList),
	}
}

// Narrow returns the files to review. With fewer than two commits the
// full base...head list passes through; otherwise only files also
// touched by the latest push (second-to-last commit to last commit)
// remain. The ignore list is subtracted in both modes. An empty result
// is the normal "no change" outcome, not an error.
func (n *RangeNarrower) Narrow(ctx context.Context, owner, repo string, fullRange []domain.FileDiff, commits []domain.CommitRef) ([]domain.FileDiff, error) {
	if len(commits) < 2 {
		return n.applyIgnore(fullRange), nil
	}

	base := commits[len(commits)-2].SHA
	head := commits[len(commits)-1].SHA

	cmp, err := n.host.CompareCommits(ctx, owner, repo, base, head)
	if err != nil {
		return nil, fmt.Errorf("compare %s...%s: %w", base, head, err)
	}

	latest := make(map[string]struct{}, len(cmp.Files))
	for _, f := range cmp.Files {
		latest[f.Path] = struct{}{}
	}

	var narrowed []domain.FileDiff
	for _, f := range fullRange {
		if _, ok := latest[f.Path]; ok {
			narrowed = append(narrowed, f)
		}
	}

	return n.applyIgnore(narrowed), nil
}

func (n *RangeNarrower) applyIgnore(files []domain.FileDiff) []domain.FileDiff {
	if len(n.ignore) == 0 {
		return files
	}

	var kept []domain.FileDiff
	for _, f := range files {
		if _, skip := n.ignore[f.Path]; skip {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func parseIgnoreList(raw string) map[string]struct{} {
	ignore := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		ignore[name] = struct{}{}
	}
	return ignore
}
