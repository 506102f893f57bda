// Package github provides the use case for posting review output to
// a pull request.
package github

import (
	"context"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ReviewClient defines the interface for creating review output on
// the hosting API. This interface allows for mocking in tests.
type ReviewClient interface {
	CreateReviewComment(ctx context.Context, owner, repo string, pullNumber int, commitSHA, path string, position int, body string) error
	CreateReview(ctx context.Context, owner, repo string, pullNumber int, body string, event github.ReviewEvent) error
}

// CommentPoster publishes verdicts for one pull request. It formats
// comment bodies and delegates the API calls; it holds no verdict
// logic, since suppression of empty verdicts is the driver's job.
type CommentPoster struct {
	client     ReviewClient
	owner      string
	repo       string
	pullNumber int
}

// NewCommentPoster creates a poster bound to one pull request.
func NewCommentPoster(client ReviewClient, owner, repo string, pullNumber int) *CommentPoster {
	return &CommentPoster{
		client:     client,
		owner:      owner,
		repo:       repo,
		pullNumber: pullNumber,
	}
}

// PostUnitComment anchors the verdict at the unit's end position
// against the given commit SHA. The driver resolves that SHA once per
// run, so every comment from a run anchors to the same commit.
func (p *CommentPoster) PostUnitComment(ctx context.Context, commitSHA string, unit diff.ChangeUnit, verdict domain.Verdict) error {
	body := github.FormatUnitComment(verdict.Body, review.Criteria)
	return p.client.CreateReviewComment(ctx, p.owner, p.repo, p.pullNumber, commitSHA, unit.File, unit.EndPosition, body)
}

// PostSummary posts a single whole-PR review with event COMMENT, which
// never changes the PR's approval state.
func (p *CommentPoster) PostSummary(ctx context.Context, sections map[string]string, order []string) error {
	body := github.FormatSummaryReview(sections, order)
	return p.client.CreateReview(ctx, p.owner, p.repo, p.pullNumber, body, github.EventComment)
}
