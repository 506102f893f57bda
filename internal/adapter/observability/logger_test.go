package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/observability"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prevOut := log.Writer()
	prevFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}()
	fn()
	return buf.String()
}

func TestLogWarningJSONFormat(t *testing.T) {
	logger := observability.NewReviewLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatJSON)

	out := captureOutput(t, func() {
		logger.LogWarning(context.Background(), "unit failed", map[string]interface{}{
			"file": "main.go",
		})
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "unit failed", entry["message"])
	assert.Equal(t, "main.go", entry["file"])
}

func TestLogInfoRespectsLevel(t *testing.T) {
	logger := observability.NewReviewLogger(llmhttp.LogLevelError, llmhttp.LogFormatHuman)

	out := captureOutput(t, func() {
		logger.LogInfo(context.Background(), "reviewing", nil)
	})

	assert.Empty(t, out)
}

func TestLogInfoHumanFormat(t *testing.T) {
	logger := observability.NewReviewLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman)

	out := captureOutput(t, func() {
		logger.LogInfo(context.Background(), "reviewing", map[string]interface{}{"file": "a.go"})
	})

	assert.Contains(t, out, "[info] reviewing")
	assert.Contains(t, out, "a.go")
}
