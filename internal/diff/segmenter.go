package diff

import "strings"

// Mode selects the segmentation strategy.
type Mode int

const (
	// ModePerLine emits one unit per added line.
	ModePerLine Mode = iota
	// ModeBlock merges consecutive added lines into one unit.
	ModeBlock
	// ModeWholeFile emits a single unit carrying the entire patch.
	ModeWholeFile
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModePerLine:
		return "line"
	case ModeBlock:
		return "block"
	case ModeWholeFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParseMode maps a configuration value to a Mode. Unrecognized values
// fall back to block mode, the default segmentation strategy.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line", "per-line":
		return ModePerLine
	case "file", "whole-file":
		return ModeWholeFile
	default:
		return ModeBlock
	}
}

// ChangeUnit is an independently reviewable slice of a file's patch.
// StartPosition and EndPosition are diff positions (see Position).
// Lines holds the added lines with their leading '+' intact; in
// whole-file mode it carries the full fragment instead.
type ChangeUnit struct {
	File          string
	StartPosition int
	EndPosition   int
	Lines         []string
}

// Text returns the unit's lines joined for prompt embedding.
func (u ChangeUnit) Text() string {
	return strings.Join(u.Lines, "\n")
}

// Position converts a line's 0-based index within a patch fragment to
// the diff position the review-comment API expects. GitHub counts
// positions as the number of lines below the first @@ hunk header, and
// a per-file fragment begins with that header, so the index is the
// position. Kept as a named function so the convention lives in
// exactly one place.
func Position(lineIndex int) int {
	return lineIndex
}

// LastLinePosition returns the diff position of the final line of a
// patch fragment. Whole-file comments anchor there.
func LastLinePosition(patch string) int {
	return Position(len(strings.Split(patch, "\n")) - 1)
}

// isCandidate reports whether a patch line is added content. The +++
// file-header marker also starts with '+' and must not count.
func isCandidate(line string) bool {
	return strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++")
}

func hasCandidate(lines []string) bool {
	for _, line := range lines {
		if isCandidate(line) {
			return true
		}
	}
	return false
}

// Segment splits a non-empty patch fragment into change units for the
// given file. It is a pure function of its input: the same patch text
// always yields the same units.
//
// A patch with no added lines yields no units; files with only
// deletions or context are skipped upstream.
func Segment(patch, filename string, mode Mode) []ChangeUnit {
	if patch == "" {
		return nil
	}

	lines := strings.Split(patch, "\n")

	if mode == ModeWholeFile {
		if !hasCandidate(lines) {
			return nil
		}
		pos := LastLinePosition(patch)
		return []ChangeUnit{{
			File:          filename,
			StartPosition: pos,
			EndPosition:   pos,
			Lines:         lines,
		}}
	}

	var units []ChangeUnit
	var run []string
	runStart := 0

	flush := func(end int) {
		if len(run) == 0 {
			return
		}
		units = append(units, ChangeUnit{
			File:          filename,
			StartPosition: Position(runStart),
			EndPosition:   Position(end),
			Lines:         run,
		})
		run = nil
	}

	for i, line := range lines {
		if !isCandidate(line) {
			// A non-candidate line closes any open block; its own
			// position is where the block's comment anchors.
			flush(i)
			continue
		}

		if mode == ModePerLine {
			units = append(units, ChangeUnit{
				File:          filename,
				StartPosition: Position(i),
				EndPosition:   Position(i),
				Lines:         []string{line},
			})
			continue
		}

		if len(run) == 0 {
			runStart = i
		}
		run = append(run, line)
	}

	// A run still open at end of stream must not be dropped.
	flush(len(lines))

	return units
}
