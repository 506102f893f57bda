package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun(runID string) review.StoreRun {
	return review.StoreRun{
		RunID:      runID,
		Timestamp:  time.Now(),
		Owner:      "octo",
		Repo:       "widgets",
		PullNumber: 7,
		HeadSHA:    "head-sha",
	}
}

func TestCreateRunAndUpdateSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("run-1")))

	summary := domain.RunSummary{
		FilesReviewed: 3,
		UnitsPosted:   2,
		UnitsClean:    4,
		UnitsSkipped:  1,
		UnitsFailed:   1,
	}
	require.NoError(t, store.UpdateRunSummary(ctx, "run-1", summary))
}

func TestCreateRunDuplicateIDFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("run-1")))
	assert.Error(t, store.CreateRun(ctx, testRun("run-1")))
}

func TestSaveCommentRequiresExistingRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	comment := review.StoreComment{
		RunID:    "missing-run",
		File:     "main.go",
		Position: 4,
		Body:     "finding",
	}
	assert.Error(t, store.SaveComment(ctx, comment), "foreign key must reject orphan comments")
}

func TestSaveCommentAfterCreateRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("run-1")))

	comment := review.StoreComment{
		RunID:    "run-1",
		File:     "main.go",
		Position: 4,
		Body:     "finding",
	}
	require.NoError(t, store.SaveComment(ctx, comment))
	require.NoError(t, store.SaveComment(ctx, review.StoreComment{
		RunID: "run-1", File: "util.go", Position: 2, Body: "another",
	}))
}

func TestStoreImplementsReviewStore(t *testing.T) {
	var _ review.Store = newTestStore(t)
}
