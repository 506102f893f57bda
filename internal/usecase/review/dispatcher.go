package review

import (
	"context"
	"log"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// TextGenerator is the outbound port for the text-generation
// collaborator.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

// DispatchOutcome classifies what the dispatcher did with a unit.
type DispatchOutcome int

const (
	// OutcomeReviewed means the provider was called and returned a verdict.
	OutcomeReviewed DispatchOutcome = iota
	// OutcomeSkipped means the unit was not sent at all (empty or over budget).
	OutcomeSkipped
)

// Dispatcher builds review requests for change units and enforces the
// patch-size budget. It never posts; verdict handling belongs to the
// driver.
type Dispatcher struct {
	generator      TextGenerator
	maxPatchChars  int // 0 means unbounded
	maxTokens      int
	noIssuesMarker string
	logger         Logger
}

// DispatcherConfig carries the dispatcher's tunables.
type DispatcherConfig struct {
	MaxPatchChars  int
	MaxTokens      int
	NoIssuesMarker string
}

// NewDispatcher constructs a dispatcher. logger may be nil.
func NewDispatcher(generator TextGenerator, cfg DispatcherConfig, logger Logger) *Dispatcher {
	marker := cfg.NoIssuesMarker
	if marker == "" {
		marker = DefaultNoIssuesMarker
	}
	return &Dispatcher{
		generator:      generator,
		maxPatchChars:  cfg.MaxPatchChars,
		maxTokens:      cfg.MaxTokens,
		noIssuesMarker: marker,
		logger:         logger,
	}
}

// Dispatch reviews one unit's text (or a whole-file patch). Empty or
// over-budget text is skipped without calling the provider, bounding
// cost and the provider's input-size limits. The returned Verdict is
// empty when the model found nothing worth posting.
func (d *Dispatcher) Dispatch(ctx context.Context, filename, text string) (domain.Verdict, DispatchOutcome, error) {
	if text == "" {
		d.logSkip(ctx, filename, "empty patch text")
		return domain.Verdict{}, OutcomeSkipped, nil
	}
	if d.maxPatchChars > 0 && len(text) > d.maxPatchChars {
		d.logSkip(ctx, filename, "patch exceeds size budget")
		return domain.Verdict{}, OutcomeSkipped, nil
	}

	system, user := BuildUnitPrompt(filename, text, d.noIssuesMarker)

	// Temperature pinned to 0 so repeated runs over the same diff are
	// expected to produce the same verdicts.
	reply, err := d.generator.GenerateText(ctx, system, user, d.maxTokens, 0)
	if err != nil {
		return domain.Verdict{}, OutcomeReviewed, err
	}

	return d.toVerdict(reply), OutcomeReviewed, nil
}

// toVerdict maps the provider's reply to a typed verdict. The
// no-issues marker (and a blank reply) becomes the empty verdict.
func (d *Dispatcher) toVerdict(reply string) domain.Verdict {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" || strings.EqualFold(trimmed, d.noIssuesMarker) {
		return domain.Verdict{}
	}
	return domain.Verdict{Body: trimmed}
}

func (d *Dispatcher) logSkip(ctx context.Context, filename, reason string) {
	log.Printf("skipping %s: %s", filename, reason)
	if d.logger != nil {
		d.logger.LogInfo(ctx, "unit skipped", map[string]interface{}{
			"file":   filename,
			"reason": reason,
		})
	}
}
