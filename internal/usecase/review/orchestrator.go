package review

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// HostClient is the outbound port for the change-request hosting API.
type HostClient interface {
	ListCommits(ctx context.Context, owner, repo string, pullNumber int) ([]domain.CommitRef, error)
	ListFiles(ctx context.Context, owner, repo string, pullNumber int) ([]domain.FileDiff, error)
	CompareCommits(ctx context.Context, owner, repo, base, head string) (domain.Comparison, error)
}

// Poster is the outbound port for publishing verdicts. The driver
// resolves the head commit SHA once per run and passes it to every
// unit comment so all comments from a run anchor to the same commit.
type Poster interface {
	PostUnitComment(ctx context.Context, commitSHA string, unit diff.ChangeUnit, verdict domain.Verdict) error
	PostSummary(ctx context.Context, sections map[string]string, order []string) error
}

// Store is the optional outbound port for the run-history audit log.
// The run row is created before any comment references it; counters
// are written once the run completes.
type Store interface {
	CreateRun(ctx context.Context, run StoreRun) error
	UpdateRunSummary(ctx context.Context, runID string, summary domain.RunSummary) error
	SaveComment(ctx context.Context, comment StoreComment) error
	Close() error
}

// StoreRun is one pipeline run for persistence.
type StoreRun struct {
	RunID      string
	Timestamp  time.Time
	Owner      string
	Repo       string
	PullNumber int
	HeadSHA    string
}

// StoreComment is one posted comment for persistence.
type StoreComment struct {
	RunID    string
	File     string
	Position int
	Body     string
}

// Request carries one run's resolved configuration. The CLI validates
// identity fields before the pipeline starts; nothing below the driver
// reads ambient state.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int

	// Base and Head select the alternate compare mode: when both are
	// set the reviewed range is base...head instead of the PR listing.
	Base string
	Head string

	// Mode selects the segmentation strategy.
	Mode diff.Mode

	// WholePR collapses output into a single summary review instead of
	// per-position comments.
	WholePR bool
}

// Orchestrator drives one review run: narrow range, segment files,
// dispatch units, post verdicts. Files and units are processed
// strictly sequentially, FIFO, each completing before the next starts.
type Orchestrator struct {
	host       HostClient
	narrower   *RangeNarrower
	dispatcher *Dispatcher
	poster     Poster
	store      Store // optional
	logger     Logger
}

// OrchestratorDeps captures the dependencies for the orchestrator.
type OrchestratorDeps struct {
	Host       HostClient
	Narrower   *RangeNarrower
	Dispatcher *Dispatcher
	Poster     Poster
	Store      Store  // Optional: run-history audit log
	Logger     Logger // Optional: structured logging
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		host:       deps.Host,
		narrower:   deps.Narrower,
		dispatcher: deps.Dispatcher,
		poster:     deps.Poster,
		store:      deps.Store,
		logger:     deps.Logger,
	}
}

// Run executes the pipeline for one change request. Fetch failures are
// fatal and returned; per-unit dispatch or post failures are logged
// with the file name and the run continues, so partial failure yields
// partial results.
func (o *Orchestrator) Run(ctx context.Context, req Request) (domain.RunSummary, error) {
	files, commits, err := o.fetchRange(ctx, req)
	if err != nil {
		return domain.RunSummary{}, err
	}
	if len(commits) == 0 {
		return domain.RunSummary{}, fmt.Errorf("pull request %s/%s#%d has no commits", req.Owner, req.Repo, req.PullNumber)
	}
	headSHA := commits[len(commits)-1].SHA

	files, err = o.narrower.Narrow(ctx, req.Owner, req.Repo, files, commits)
	if err != nil {
		return domain.RunSummary{}, err
	}
	if len(files) == 0 {
		log.Printf("no change to review for %s/%s#%d", req.Owner, req.Repo, req.PullNumber)
		return domain.RunSummary{}, nil
	}

	var summary domain.RunSummary
	runID := fmt.Sprintf("%s-%s-%d-%d", req.Owner, req.Repo, req.PullNumber, time.Now().UnixNano())
	o.createRun(ctx, StoreRun{
		RunID:      runID,
		Timestamp:  time.Now(),
		Owner:      req.Owner,
		Repo:       req.Repo,
		PullNumber: req.PullNumber,
		HeadSHA:    headSHA,
	})

	sections := make(map[string]string)
	var order []string

	for _, file := range files {
		if !file.HasPatch() {
			log.Printf("skipping %s: no textual patch", file.Path)
			continue
		}
		summary.FilesReviewed++
		log.Printf("reviewing %s (%s)", file.Path, file.Status)

		if req.WholePR {
			o.reviewWholeFile(ctx, file, sections, &order, &summary)
			continue
		}

		units := diff.Segment(file.Patch, file.Path, req.Mode)
		for _, unit := range units {
			o.reviewUnit(ctx, headSHA, runID, unit, &summary)
		}
	}

	if req.WholePR && len(order) > 0 {
		if err := o.poster.PostSummary(ctx, sections, order); err != nil {
			return summary, fmt.Errorf("post summary review: %w", err)
		}
		summary.UnitsPosted = len(order)
	}

	o.finishRun(ctx, runID, summary)

	log.Printf("run complete: files=%d posted=%d clean=%d skipped=%d failed=%d",
		summary.FilesReviewed, summary.UnitsPosted, summary.UnitsClean,
		summary.UnitsSkipped, summary.UnitsFailed)

	return summary, nil
}

// fetchRange enumerates the unit of work. Any failure here is fatal:
// no partial posting is attempted when the range itself is unknown.
func (o *Orchestrator) fetchRange(ctx context.Context, req Request) ([]domain.FileDiff, []domain.CommitRef, error) {
	if req.Base != "" && req.Head != "" {
		cmp, err := o.host.CompareCommits(ctx, req.Owner, req.Repo, req.Base, req.Head)
		if err != nil {
			return nil, nil, fmt.Errorf("compare %s...%s: %w", req.Base, req.Head, err)
		}
		return cmp.Files, cmp.Commits, nil
	}

	commits, err := o.host.ListCommits(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("list commits for #%d: %w", req.PullNumber, err)
	}
	files, err := o.host.ListFiles(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("list files for #%d: %w", req.PullNumber, err)
	}
	return files, commits, nil
}

// reviewUnit dispatches one unit and posts a non-empty verdict. A
// failure here never aborts the batch.
func (o *Orchestrator) reviewUnit(ctx context.Context, headSHA, runID string, unit diff.ChangeUnit, summary *domain.RunSummary) {
	verdict, outcome, err := o.dispatcher.Dispatch(ctx, unit.File, unit.Text())
	if err != nil {
		o.logUnitFailure(ctx, unit.File, "dispatch", err)
		summary.UnitsFailed++
		return
	}
	if outcome == OutcomeSkipped {
		summary.UnitsSkipped++
		return
	}
	// Suppression is decided here, before the poster is ever invoked.
	if verdict.Empty() {
		summary.UnitsClean++
		return
	}

	if err := o.poster.PostUnitComment(ctx, headSHA, unit, verdict); err != nil {
		o.logUnitFailure(ctx, unit.File, "post", err)
		summary.UnitsFailed++
		return
	}
	summary.UnitsPosted++

	o.saveComment(ctx, StoreComment{
		RunID:    runID,
		File:     unit.File,
		Position: unit.EndPosition,
		Body:     verdict.Body,
	})
}

// reviewWholeFile dispatches an entire file patch for whole-PR mode,
// collecting the verdict for the single summary review.
func (o *Orchestrator) reviewWholeFile(ctx context.Context, file domain.FileDiff, sections map[string]string, order *[]string, summary *domain.RunSummary) {
	verdict, outcome, err := o.dispatcher.Dispatch(ctx, file.Path, file.Patch)
	if err != nil {
		o.logUnitFailure(ctx, file.Path, "dispatch", err)
		summary.UnitsFailed++
		return
	}
	if outcome == OutcomeSkipped {
		summary.UnitsSkipped++
		return
	}
	if verdict.Empty() {
		summary.UnitsClean++
		return
	}

	sections[file.Path] = verdict.Body
	*order = append(*order, file.Path)
}

func (o *Orchestrator) logUnitFailure(ctx context.Context, file, stage string, err error) {
	log.Printf("%s failed for %s: %v", stage, file, err)
	if o.logger != nil {
		o.logger.LogWarning(ctx, "unit failed", map[string]interface{}{
			"file":  file,
			"stage": stage,
			"error": err.Error(),
		})
	}
}

// createRun, finishRun and saveComment are best effort: the audit log
// never blocks or fails a review run.
func (o *Orchestrator) createRun(ctx context.Context, run StoreRun) {
	if o.store == nil {
		return
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		log.Printf("warning: failed to save run history: %v", err)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, summary domain.RunSummary) {
	if o.store == nil {
		return
	}
	if err := o.store.UpdateRunSummary(ctx, runID, summary); err != nil {
		log.Printf("warning: failed to update run history: %v", err)
	}
}

func (o *Orchestrator) saveComment(ctx context.Context, comment StoreComment) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveComment(ctx, comment); err != nil {
		log.Printf("warning: failed to save comment record: %v", err)
	}
}
