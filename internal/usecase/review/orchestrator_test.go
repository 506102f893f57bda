package review_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

type mockHost struct {
	commits    []domain.CommitRef
	commitsErr error
	files      []domain.FileDiff
	filesErr   error
	comparison domain.Comparison
	compareErr error

	compareCalls int
}

func (m *mockHost) ListCommits(ctx context.Context, owner, repo string, pullNumber int) ([]domain.CommitRef, error) {
	return m.commits, m.commitsErr
}

func (m *mockHost) ListFiles(ctx context.Context, owner, repo string, pullNumber int) ([]domain.FileDiff, error) {
	return m.files, m.filesErr
}

func (m *mockHost) CompareCommits(ctx context.Context, owner, repo, base, head string) (domain.Comparison, error) {
	m.compareCalls++
	return m.comparison, m.compareErr
}

type postedComment struct {
	commitSHA string
	unit      diff.ChangeUnit
	verdict   domain.Verdict
}

type mockPoster struct {
	comments   []postedComment
	commentErr map[string]error // keyed by file path

	summarySections map[string]string
	summaryOrder    []string
	summaryCalls    int
	summaryErr      error
}

func (m *mockPoster) PostUnitComment(ctx context.Context, commitSHA string, unit diff.ChangeUnit, verdict domain.Verdict) error {
	if err, ok := m.commentErr[unit.File]; ok {
		return err
	}
	m.comments = append(m.comments, postedComment{commitSHA: commitSHA, unit: unit, verdict: verdict})
	return nil
}

func (m *mockPoster) PostSummary(ctx context.Context, sections map[string]string, order []string) error {
	m.summaryCalls++
	m.summarySections = sections
	m.summaryOrder = order
	return m.summaryErr
}

// sequenceGenerator replies per file so tests can make one unit fail
// while another succeeds.
type sequenceGenerator struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (g *sequenceGenerator) GenerateText(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	g.calls = append(g.calls, user)
	for file, err := range g.errs {
		if strings.Contains(user, "File: "+file+"\n") {
			return "", err
		}
	}
	for file, reply := range g.replies {
		if strings.Contains(user, "File: "+file+"\n") {
			return reply, nil
		}
	}
	return review.DefaultNoIssuesMarker, nil
}

type mockStore struct {
	runs     []review.StoreRun
	updates  map[string]domain.RunSummary
	comments []review.StoreComment
}

func (m *mockStore) CreateRun(ctx context.Context, run review.StoreRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockStore) UpdateRunSummary(ctx context.Context, runID string, summary domain.RunSummary) error {
	if m.updates == nil {
		m.updates = make(map[string]domain.RunSummary)
	}
	m.updates[runID] = summary
	return nil
}

func (m *mockStore) SaveComment(ctx context.Context, comment review.StoreComment) error {
	m.comments = append(m.comments, comment)
	return nil
}

func (m *mockStore) Close() error { return nil }

func newOrchestrator(host *mockHost, generator review.TextGenerator, poster *mockPoster, store review.Store, cfg review.DispatcherConfig) *review.Orchestrator {
	return review.NewOrchestrator(review.OrchestratorDeps{
		Host:       host,
		Narrower:   review.NewRangeNarrower(host, ""),
		Dispatcher: review.NewDispatcher(generator, cfg, nil),
		Poster:     poster,
		Store:      store,
	})
}

func TestRunPostsCommentsAnchoredAtHeadCommit(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head-sha"}},
		files: []domain.FileDiff{
			{Path: "main.go", Status: domain.FileStatusModified, Patch: "@@ -1,2 +1,3 @@\n context\n+added line one\n+added line two\n removed"},
		},
	}
	generator := &sequenceGenerator{replies: map[string]string{"main.go": "Consider a bounds check."}}
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(poster.comments) != 1 {
		t.Fatalf("expected 1 posted comment, got %d", len(poster.comments))
	}
	posted := poster.comments[0]
	if posted.commitSHA != "head-sha" {
		t.Errorf("comment anchored to %q, want head-sha", posted.commitSHA)
	}
	if posted.unit.EndPosition != 4 {
		t.Errorf("comment at position %d, want 4", posted.unit.EndPosition)
	}
	if posted.verdict.Body != "Consider a bounds check." {
		t.Errorf("unexpected verdict body %q", posted.verdict.Body)
	}

	if summary.FilesReviewed != 1 || summary.UnitsPosted != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestRunOneFailingUnitDoesNotStopTheRest(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head"}},
		files: []domain.FileDiff{
			{Path: "bad.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+broken line"},
			{Path: "good.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+fine line"},
		},
	}
	generator := &sequenceGenerator{
		errs:    map[string]error{"bad.go": errors.New("provider exploded")},
		replies: map[string]string{"good.go": "A finding."},
	}
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("per-unit failure must not fail the run: %v", err)
	}

	if summary.UnitsFailed != 1 {
		t.Errorf("expected 1 failed unit, got %d", summary.UnitsFailed)
	}
	if len(poster.comments) != 1 || poster.comments[0].unit.File != "good.go" {
		t.Errorf("expected the later unit to still post, got %+v", poster.comments)
	}
}

func TestRunPostFailureIsIsolatedToo(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head"}},
		files: []domain.FileDiff{
			{Path: "a.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+a"},
			{Path: "b.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+b"},
		},
	}
	generator := &sequenceGenerator{replies: map[string]string{"a.go": "finding a", "b.go": "finding b"}}
	poster := &mockPoster{commentErr: map[string]error{"a.go": errors.New("422")}}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("post failure must not fail the run: %v", err)
	}
	if summary.UnitsFailed != 1 || summary.UnitsPosted != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestRunCleanVerdictNeverReachesPoster(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head"}},
		files:   []domain.FileDiff{{Path: "clean.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+tidy"}},
	}
	generator := &sequenceGenerator{} // defaults to the no-issues marker
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(poster.comments) != 0 {
		t.Errorf("clean verdicts must be suppressed, got %+v", poster.comments)
	}
	if summary.UnitsClean != 1 {
		t.Errorf("expected 1 clean unit, got %d", summary.UnitsClean)
	}
}

func TestRunOverBudgetUnitSkipsProviderAndPoster(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head"}},
		files:   []domain.FileDiff{{Path: "huge.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+this line is far too long for the budget"}},
	}
	generator := &sequenceGenerator{}
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{MaxPatchChars: 5})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(generator.calls) != 0 {
		t.Errorf("over-budget unit must not reach the provider, got %d calls", len(generator.calls))
	}
	if len(poster.comments) != 0 {
		t.Errorf("over-budget unit must not be posted")
	}
	if summary.UnitsSkipped != 1 {
		t.Errorf("expected 1 skipped unit, got %d", summary.UnitsSkipped)
	}
}

func TestRunFileWithoutPatchIsSkipped(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head"}},
		files: []domain.FileDiff{
			{Path: "image.png", Status: domain.FileStatusModified, Patch: ""},
			{Path: "main.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+x"},
		},
	}
	generator := &sequenceGenerator{replies: map[string]string{"main.go": "finding"}}
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.FilesReviewed != 1 {
		t.Errorf("binary file must not count as reviewed, got %d", summary.FilesReviewed)
	}
}

func TestRunNoCommitsIsAnError(t *testing.T) {
	host := &mockHost{commits: nil}
	orchestrator := newOrchestrator(host, &sequenceGenerator{}, &mockPoster{}, nil, review.DispatcherConfig{})

	_, err := orchestrator.Run(context.Background(), review.Request{Owner: "octo", Repo: "repo", PullNumber: 7})
	if err == nil {
		t.Fatal("expected an error for a pull request with no commits")
	}
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	host := &mockHost{
		commits:  []domain.CommitRef{{SHA: "head"}},
		filesErr: errors.New("503"),
	}
	orchestrator := newOrchestrator(host, &sequenceGenerator{}, &mockPoster{}, nil, review.DispatcherConfig{})

	_, err := orchestrator.Run(context.Background(), review.Request{Owner: "octo", Repo: "repo", PullNumber: 7})
	if err == nil {
		t.Fatal("expected list files failure to be fatal")
	}
}

func TestRunEmptyRangeYieldsZeroSummary(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "c1"}, {SHA: "c2"}},
		files:   []domain.FileDiff{{Path: "old.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+x"}},
		// The latest push touched nothing from the full range.
		comparison: domain.Comparison{},
	}
	poster := &mockPoster{}
	orchestrator := newOrchestrator(host, &sequenceGenerator{}, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{Owner: "octo", Repo: "repo", PullNumber: 7})
	if err != nil {
		t.Fatalf("empty range is a normal outcome, got %v", err)
	}
	if summary.Reviewed() {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if len(poster.comments) != 0 || poster.summaryCalls != 0 {
		t.Errorf("nothing should be posted for an empty range")
	}
}

func TestRunCompareModeUsesExplicitRefs(t *testing.T) {
	host := &mockHost{
		comparison: domain.Comparison{
			Files:   []domain.FileDiff{{Path: "main.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+x"}},
			Commits: []domain.CommitRef{{SHA: "ref-head"}},
		},
	}
	generator := &sequenceGenerator{replies: map[string]string{"main.go": "finding"}}
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	_, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7,
		Base: "main", Head: "feature", Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(poster.comments) != 1 || poster.comments[0].commitSHA != "ref-head" {
		t.Fatalf("compare-mode comments must anchor at the compared head, got %+v", poster.comments)
	}
}

func TestRunWholePRPostsSingleSummary(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head"}},
		files: []domain.FileDiff{
			{Path: "a.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+a"},
			{Path: "b.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+b"},
		},
	}
	generator := &sequenceGenerator{replies: map[string]string{"a.go": "finding a", "b.go": "finding b"}}
	poster := &mockPoster{}

	orchestrator := newOrchestrator(host, generator, poster, nil, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, WholePR: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if poster.summaryCalls != 1 {
		t.Fatalf("expected exactly one summary review, got %d", poster.summaryCalls)
	}
	if len(poster.comments) != 0 {
		t.Errorf("whole-PR mode must not post inline comments")
	}
	if poster.summarySections["a.go"] != "finding a" || poster.summarySections["b.go"] != "finding b" {
		t.Errorf("unexpected sections %+v", poster.summarySections)
	}
	if summary.UnitsPosted != 2 {
		t.Errorf("expected 2 posted sections, got %d", summary.UnitsPosted)
	}
}

func TestRunRecordsHistoryWhenStoreConfigured(t *testing.T) {
	host := &mockHost{
		commits: []domain.CommitRef{{SHA: "head-sha"}},
		files:   []domain.FileDiff{{Path: "main.go", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n+x"}},
	}
	generator := &sequenceGenerator{replies: map[string]string{"main.go": "finding"}}
	store := &mockStore{}

	orchestrator := newOrchestrator(host, generator, &mockPoster{}, store, review.DispatcherConfig{})

	summary, err := orchestrator.Run(context.Background(), review.Request{
		Owner: "octo", Repo: "repo", PullNumber: 7, Mode: diff.ModeBlock,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.runs) != 1 {
		t.Fatalf("expected 1 run record, got %d", len(store.runs))
	}
	run := store.runs[0]
	if run.Owner != "octo" || run.Repo != "repo" || run.PullNumber != 7 || run.HeadSHA != "head-sha" {
		t.Errorf("unexpected run record %+v", run)
	}
	if len(store.comments) != 1 || store.comments[0].RunID != run.RunID {
		t.Errorf("comment record must reference the run, got %+v", store.comments)
	}
	if got := store.updates[run.RunID]; got != summary {
		t.Errorf("stored summary %+v does not match returned %+v", got, summary)
	}
}
